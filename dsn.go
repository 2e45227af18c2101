package main

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/xo/dburl"
)

// Endpoint is one side of the migration: a DSN plus credentials.
// The DSN is either PDO-style ("mysql:host=…;port=…;dbname=…",
// "pgsql:host=…;port=…;dbname=…") or a URL ("mysql://…", "postgres://…").
type Endpoint struct {
	DSN      string `json:"dsn" xml:"dsn" toml:"dsn" yaml:"dsn"`
	User     string `json:"user" xml:"user" toml:"user" yaml:"user"`
	Password string `json:"password" xml:"password" toml:"password" yaml:"password"`
}

// parseEndpointTriple parses the flat "dsn, user, password" config form.
// Only the first two commas split, so a password containing commas
// survives; the structured object form avoids the issue entirely.
func parseEndpointTriple(s string) (Endpoint, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) < 2 {
		return Endpoint{}, fmt.Errorf("expected \"dsn, user, password\", got %q", s)
	}
	ep := Endpoint{
		DSN:  strings.TrimSpace(parts[0]),
		User: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		ep.Password = strings.TrimSpace(parts[2])
	}
	if ep.DSN == "" {
		return Endpoint{}, fmt.Errorf("empty dsn in %q", s)
	}
	return ep, nil
}

// parsePDOParams splits "prefix:key=value;key=value" into a map.
func parsePDOParams(dsn, prefix string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(dsn, prefix+":")
	if !ok {
		return nil, fmt.Errorf("dsn %q does not start with %q", dsn, prefix+":")
	}
	params := make(map[string]string)
	for _, pair := range strings.Split(rest, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("malformed dsn element %q in %q", pair, dsn)
		}
		params[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return params, nil
}

// buildMySQLDSN converts an Endpoint into a go-sql-driver DSN plus the
// source database name. InterpolateParams avoids a round trip per query;
// ParseTime stays off so temporal values arrive as text for COPY.
func buildMySQLDSN(ep Endpoint) (string, string, error) {
	cfg := mysql.NewConfig()

	switch {
	case strings.HasPrefix(ep.DSN, "mysql:") && !strings.Contains(ep.DSN, "://"):
		params, err := parsePDOParams(ep.DSN, "mysql")
		if err != nil {
			return "", "", err
		}
		host := params["host"]
		if host == "" {
			host = "127.0.0.1"
		}
		port := params["port"]
		if port == "" {
			port = "3306"
		}
		cfg.Net = "tcp"
		cfg.Addr = host + ":" + port
		cfg.DBName = params["dbname"]
		if cs := params["charset"]; cs != "" {
			cfg.Params = map[string]string{"charset": cs}
		}

	case strings.Contains(ep.DSN, "://"):
		u, err := dburl.Parse(ep.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql url: %w", err)
		}
		parsed, err := mysql.ParseDSN(u.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg = parsed

	default:
		parsed, err := mysql.ParseDSN(ep.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg = parsed
	}

	if ep.User != "" {
		cfg.User = ep.User
	}
	if ep.Password != "" {
		cfg.Passwd = ep.Password
	}
	if cfg.DBName == "" {
		return "", "", fmt.Errorf("mysql dsn %q carries no dbname", ep.DSN)
	}
	cfg.InterpolateParams = true

	return cfg.FormatDSN(), cfg.DBName, nil
}

// buildPostgresDSN converts an Endpoint into a pgx-compatible keyword/value
// connection string plus the destination database name.
func buildPostgresDSN(ep Endpoint) (string, string, error) {
	var kv map[string]string

	switch {
	case strings.HasPrefix(ep.DSN, "pgsql:") && !strings.Contains(ep.DSN, "://"):
		params, err := parsePDOParams(ep.DSN, "pgsql")
		if err != nil {
			return "", "", err
		}
		kv = params

	case strings.Contains(ep.DSN, "://"):
		u, err := dburl.Parse(ep.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse postgres url: %w", err)
		}
		kv = map[string]string{
			"host":   u.Hostname(),
			"port":   u.Port(),
			"dbname": strings.TrimPrefix(u.Path, "/"),
		}
		if u.User != nil {
			kv["user"] = u.User.Username()
			if pw, ok := u.User.Password(); ok {
				kv["password"] = pw
			}
		}
		if ss := u.Query().Get("sslmode"); ss != "" {
			kv["sslmode"] = ss
		}

	default:
		return "", "", fmt.Errorf("unrecognized postgres dsn %q", ep.DSN)
	}

	if ep.User != "" {
		kv["user"] = ep.User
	}
	if ep.Password != "" {
		kv["password"] = ep.Password
	}
	if kv["host"] == "" {
		kv["host"] = "127.0.0.1"
	}
	if kv["port"] == "" {
		kv["port"] = "5432"
	}
	if kv["dbname"] == "" {
		return "", "", fmt.Errorf("postgres dsn %q carries no dbname", ep.DSN)
	}

	// Stable key order keeps the conn string reproducible in logs and tests.
	var b strings.Builder
	for _, k := range []string{"host", "port", "dbname", "user", "password", "sslmode"} {
		if v := kv[k]; v != "" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%s", k, quoteConnValue(v))
		}
	}
	return b.String(), kv["dbname"], nil
}

// quoteConnValue quotes a keyword/value connection string value when it
// contains spaces or quotes.
func quoteConnValue(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
