// Package config loads the remindsync configuration.
//
// A configuration file is a CUE document unified with the embedded #Config
// schema, which carries every default. Environment variables then override a
// few operational knobs, and partition tokens are read from the environment
// (optionally populated from a .env file).
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/remindsync/internal/engine"
	"github.com/roach88/remindsync/internal/projector"
	"github.com/roach88/remindsync/internal/tabular"
)

//go:embed schema.cue
var schemaSource []byte

// Config is the decoded configuration.
type Config struct {
	API           APIConfig         `json:"api"`
	Sync          SyncConfig        `json:"sync"`
	Phone         PhoneConfig       `json:"phone"`
	Export        ExportConfig      `json:"export"`
	Partitions    []Partition       `json:"partitions"`
	DoctorAliases map[string]string `json:"doctor_aliases"`
}

// APIConfig configures the contact API client.
type APIConfig struct {
	BaseURL           string  `json:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// SyncConfig configures the batch orchestrator.
type SyncConfig struct {
	Concurrency      int       `json:"concurrency"`
	ErrorDetailLimit int       `json:"error_detail_limit"`
	Tag              TagConfig `json:"tag"`
}

// TagConfig configures the tagging pass. Value is an int or a string.
type TagConfig struct {
	Enabled bool   `json:"enabled"`
	Field   string `json:"field"`
	Value   any    `json:"-"`
}

// PhoneConfig configures phone canonicalization.
type PhoneConfig struct {
	CountryCode string `json:"country_code"`
}

// ExportConfig names the export columns.
type ExportConfig struct {
	Columns tabular.Columns `json:"columns"`
}

// Partition is one destination workspace.
type Partition struct {
	Name     string `json:"name"`
	Match    string `json:"match"`
	TokenEnv string `json:"token_env"`
}

// TokenVar returns the environment variable holding the partition token.
func (p Partition) TokenVar() string {
	if p.TokenEnv != "" {
		return p.TokenEnv
	}
	return "RESPONDIO_TOKEN_" + strings.ToUpper(p.Name)
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg, err := Parse(nil, "")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema is invalid: %v", err))
	}
	return cfg
}

// Load reads and decodes the configuration file at path. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil, "")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse unifies data with the schema and decodes the result. Fields the
// schema does not define are rejected.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	value := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		if filename == "" {
			filename = "config.cue"
		}
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", filename, err)
		}
		value = value.Unify(user)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	tag, err := decodeTagValue(value.LookupPath(cue.ParsePath("sync.tag.value")))
	if err != nil {
		return nil, err
	}
	cfg.Sync.Tag.Value = tag

	if cfg.DoctorAliases == nil {
		cfg.DoctorAliases = map[string]string{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeTagValue(v cue.Value) (any, error) {
	v, _ = v.Default()
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("sync.tag.value: %w", err)
		}
		return int(n), nil
	case cue.StringKind:
		return v.String()
	default:
		return nil, fmt.Errorf("sync.tag.value: must be an int or a string")
	}
}

// validate checks what the schema cannot express.
func (c *Config) validate() error {
	if len(c.Partitions) == 0 {
		return fmt.Errorf("config: at least one partition is required")
	}
	seen := make(map[string]struct{}, len(c.Partitions))
	for _, p := range c.Partitions {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("config: duplicate partition %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Routes returns the projector routes in partition order.
func (c *Config) Routes() []projector.Route {
	routes := make([]projector.Route, len(c.Partitions))
	for i, p := range c.Partitions {
		routes[i] = projector.Route{Name: p.Name, Match: p.Match}
	}
	return routes
}

// EngineOptions returns the orchestrator options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Concurrency:      c.Sync.Concurrency,
		ErrorDetailLimit: c.Sync.ErrorDetailLimit,
		Tag: engine.TagOptions{
			Enabled: c.Sync.Tag.Enabled,
			Field:   c.Sync.Tag.Field,
			Value:   c.Sync.Tag.Value,
		},
	}
}
