package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, "m.json", `{
		"source": "mysql:host=localhost;dbname=shop, root, secret",
		"target": {"dsn": "pgsql:host=localhost;dbname=shop", "user": "admin", "password": "p,w"},
		"schema": "shop",
		"encoding": "UTF-8",
		"data_chunk_size": 25,
		"data_only": true,
		"workers": 4,
		"exclude": ["audit_log"]
	}`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Source.DSN != "mysql:host=localhost;dbname=shop" || cfg.Source.User != "root" || cfg.Source.Password != "secret" {
		t.Errorf("source = %+v", cfg.Source.Endpoint)
	}
	if cfg.Target.Password != "p,w" {
		t.Errorf("structured password = %q, want %q", cfg.Target.Password, "p,w")
	}
	if cfg.Schema != "shop" || cfg.DataChunkSize != 25 || !cfg.DataOnly || cfg.Workers != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "audit_log" {
		t.Errorf("exclude = %v", cfg.Exclude)
	}
}

func TestLoadConfigXML(t *testing.T) {
	path := writeConfig(t, "m.xml", `<config>
		<source>mysql:host=localhost;dbname=shop, root, secret</source>
		<target>
			<dsn>pgsql:host=localhost;dbname=shop</dsn>
			<user>admin</user>
			<password>secret</password>
		</target>
		<schema>shop</schema>
	</config>`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Source.User != "root" {
		t.Errorf("source user = %q", cfg.Source.User)
	}
	if cfg.Target.DSN != "pgsql:host=localhost;dbname=shop" || cfg.Target.User != "admin" {
		t.Errorf("target = %+v", cfg.Target.Endpoint)
	}
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, "m.toml", `
schema = "shop"
data_chunk_size = 5

[source]
dsn = "mysql:host=localhost;dbname=shop"
user = "root"
password = "secret"

[target]
dsn = "pgsql:host=localhost;dbname=shop"
user = "admin"
password = "secret"

[hooks]
before_fk = ["cleanup.sql"]
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Source.DSN != "mysql:host=localhost;dbname=shop" {
		t.Errorf("source = %+v", cfg.Source.Endpoint)
	}
	if len(cfg.Hooks.BeforeFk) != 1 || cfg.Hooks.BeforeFk[0] != "cleanup.sql" {
		t.Errorf("hooks = %+v", cfg.Hooks)
	}
	if cfg.DataChunkSize != 5 {
		t.Errorf("data_chunk_size = %d", cfg.DataChunkSize)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "m.yml", `
source: "mysql:host=localhost;dbname=shop, root, secret"
target:
  dsn: "pgsql:host=localhost;dbname=shop"
  user: admin
  password: secret
workers: 2
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Source.Password != "secret" || cfg.Workers != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "m.json", `{
		"source": "mysql:host=localhost;dbname=shop, root, secret",
		"target": "pgsql:host=localhost;dbname=shop, admin, secret"
	}`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Encoding != "UTF-8" {
		t.Errorf("default encoding = %q", cfg.Encoding)
	}
	if cfg.DataChunkSize != 10 {
		t.Errorf("default data_chunk_size = %d", cfg.DataChunkSize)
	}
	if cfg.Workers != 1 {
		t.Errorf("default workers = %d", cfg.Workers)
	}
	if cfg.TempDirPath == "" || cfg.LogDirPath == "" {
		t.Errorf("default paths empty: %q %q", cfg.TempDirPath, cfg.LogDirPath)
	}
}

func TestLoadConfigChunkSizeFloor(t *testing.T) {
	path := writeConfig(t, "m.json", `{
		"source": "mysql:host=localhost;dbname=shop, root, secret",
		"target": "pgsql:host=localhost;dbname=shop, admin, secret",
		"data_chunk_size": -3
	}`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataChunkSize != 1 {
		t.Errorf("data_chunk_size = %d, want floor 1", cfg.DataChunkSize)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	path := writeConfig(t, "m.json", `{"source": "mysql:host=x;dbname=d, u, p"}`)
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for missing target")
	}
}

func TestLoadConfigUnknownExtension(t *testing.T) {
	path := writeConfig(t, "m.ini", `source=x`)
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadConfigUnknownJSONKey(t *testing.T) {
	path := writeConfig(t, "m.json", `{
		"source": "mysql:host=x;dbname=d, u, p",
		"target": "pgsql:host=x;dbname=d, u, p",
		"wibble": 1
	}`)
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
