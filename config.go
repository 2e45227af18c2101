package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config holds the full migration configuration. The on-disk format is
// chosen by file extension: .json and .xml are the primary formats, .toml
// and .yml/.yaml are accepted equivalents.
type Config struct {
	XMLName xml.Name `json:"-" toml:"-" yaml:"-" xml:"config"`

	Source        endpointValue `json:"source" toml:"source" yaml:"source" xml:"source"`
	Target        endpointValue `json:"target" toml:"target" yaml:"target" xml:"target"`
	Schema        string        `json:"schema" toml:"schema" yaml:"schema" xml:"schema"`
	Encoding      string        `json:"encoding" toml:"encoding" yaml:"encoding" xml:"encoding"`
	DataChunkSize int           `json:"data_chunk_size" toml:"data_chunk_size" yaml:"data_chunk_size" xml:"data_chunk_size"`
	DataOnly      bool          `json:"data_only" toml:"data_only" yaml:"data_only" xml:"data_only"`
	TempDirPath   string        `json:"temp_dir_path" toml:"temp_dir_path" yaml:"temp_dir_path" xml:"temp_dir_path"`
	LogDirPath    string        `json:"log_dir_path" toml:"log_dir_path" yaml:"log_dir_path" xml:"log_dir_path"`
	Workers       int           `json:"workers" toml:"workers" yaml:"workers" xml:"workers"`
	Exclude       []string      `json:"exclude" toml:"exclude" yaml:"exclude" xml:"exclude>table"`
	Hooks         HooksConfig   `json:"hooks" toml:"hooks" yaml:"hooks" xml:"hooks"`

	// configDir is the directory containing the config file, used to resolve
	// relative paths (temp dir, log dir, hook SQL files).
	configDir string
}

// HooksConfig lists SQL files executed at phase boundaries.
type HooksConfig struct {
	BeforeData []string `json:"before_data" toml:"before_data" yaml:"before_data" xml:"before_data>file"`
	AfterData  []string `json:"after_data" toml:"after_data" yaml:"after_data" xml:"after_data>file"`
	BeforeFk   []string `json:"before_fk" toml:"before_fk" yaml:"before_fk" xml:"before_fk>file"`
	AfterAll   []string `json:"after_all" toml:"after_all" yaml:"after_all" xml:"after_all>file"`
}

// endpointValue accepts either the flat "dsn, user, password" triple or a
// structured {dsn, user, password} object in every supported format.
type endpointValue struct {
	Endpoint
}

func (e *endpointValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ep, err := parseEndpointTriple(s)
		if err != nil {
			return err
		}
		e.Endpoint = ep
		return nil
	}
	return json.Unmarshal(data, &e.Endpoint)
}

func (e *endpointValue) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		ep, err := parseEndpointTriple(value.Value)
		if err != nil {
			return err
		}
		e.Endpoint = ep
		return nil
	}
	return value.Decode(&e.Endpoint)
}

func (e *endpointValue) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		ep, err := parseEndpointTriple(v)
		if err != nil {
			return err
		}
		e.Endpoint = ep
		return nil
	case map[string]any:
		str := func(k string) string {
			s, _ := v[k].(string)
			return s
		}
		e.Endpoint = Endpoint{DSN: str("dsn"), User: str("user"), Password: str("password")}
		return nil
	}
	return fmt.Errorf("endpoint must be a string triple or a table, got %T", data)
}

func (e *endpointValue) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var aux struct {
		Chardata string `xml:",chardata"`
		DSN      string `xml:"dsn"`
		User     string `xml:"user"`
		Password string `xml:"password"`
	}
	if err := d.DecodeElement(&aux, &start); err != nil {
		return err
	}
	if aux.DSN != "" {
		e.Endpoint = Endpoint{DSN: aux.DSN, User: aux.User, Password: aux.Password}
		return nil
	}
	ep, err := parseEndpointTriple(strings.TrimSpace(aux.Chardata))
	if err != nil {
		return err
	}
	e.Endpoint = ep
	return nil
}

// loadConfig reads a config file and returns a Config with defaults applied.
func loadConfig(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, newError(errConfig, "", fmt.Errorf("expand config path: %w", err))
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, newError(errConfig, "", fmt.Errorf("read config: %w", err))
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, newError(errConfig, "", fmt.Errorf("parse json config: %w", err))
		}
	case ".xml":
		if err := xml.Unmarshal(data, &cfg); err != nil {
			return nil, newError(errConfig, "", fmt.Errorf("parse xml config: %w", err))
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, newError(errConfig, "", fmt.Errorf("parse toml config: %w", err))
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return nil, newError(errConfig, "", fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", ")))
		}
	case ".yml", ".yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, newError(errConfig, "", fmt.Errorf("parse yaml config: %w", err))
		}
	default:
		return nil, newError(errConfig, "", fmt.Errorf("unsupported config extension %q (want .json, .xml, .toml, .yml)", ext))
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return nil, newError(errConfig, "", fmt.Errorf("resolve config path: %w", err))
	}
	cfg.configDir = filepath.Dir(absPath)

	if cfg.Source.DSN == "" {
		return nil, newError(errConfig, "", fmt.Errorf("source is required"))
	}
	if cfg.Target.DSN == "" {
		return nil, newError(errConfig, "", fmt.Errorf("target is required"))
	}

	if cfg.Encoding == "" {
		cfg.Encoding = "UTF-8"
	}
	if cfg.DataChunkSize < 1 {
		if cfg.DataChunkSize != 0 {
			cfg.DataChunkSize = 1
		} else {
			cfg.DataChunkSize = 10
		}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	if cfg.TempDirPath == "" {
		cfg.TempDirPath = filepath.Join(cfg.configDir, "pgmover_temp")
	} else {
		cfg.TempDirPath = cfg.resolvePath(cfg.TempDirPath)
	}
	if cfg.LogDirPath == "" {
		cfg.LogDirPath = filepath.Join(cfg.configDir, "logs_directory")
	} else {
		cfg.LogDirPath = cfg.resolvePath(cfg.LogDirPath)
	}

	return &cfg, nil
}

// resolvePath expands ~ and resolves a path relative to the config file
// directory.
func (c *Config) resolvePath(p string) string {
	if expanded, err := homedir.Expand(p); err == nil {
		p = expanded
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}
