package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvApplyTag    = "RESPONDIO_APLICAR_ID_PAC"
	EnvTagValue    = "RESPONDIO_ID_PAC"
	EnvTimeout     = "RESPONDIO_TIMEOUT_SECONDS"
	EnvConcurrency = "REMINDSYNC_CONCURRENCY"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies the environment overrides to c.
//
// The tag toggle is on only when its value is "true" (any case); every other
// value turns tagging off. Numeric overrides must parse and be positive.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvApplyTag); ok {
		c.Sync.Tag.Enabled = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup(EnvTagValue); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvTagValue, v)
		}
		c.Sync.Tag.Value = n
	}
	if err := positiveInt(lookup, EnvTimeout, &c.API.TimeoutSeconds); err != nil {
		return err
	}
	if err := positiveInt(lookup, EnvConcurrency, &c.Sync.Concurrency); err != nil {
		return err
	}
	return nil
}

func positiveInt(lookup LookupFunc, key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: %q is not a positive integer", key, v)
	}
	*dst = n
	return nil
}

// MissingTokensError lists the token variables that are unset or blank.
type MissingTokensError struct {
	Vars []string
}

func (e *MissingTokensError) Error() string {
	return "missing environment variable(s): " + strings.Join(e.Vars, ", ")
}

// Tokens returns the bearer token of every partition, keyed by partition
// name. Every unset or blank variable is reported in one MissingTokensError.
func (c *Config) Tokens(lookup LookupFunc) (map[string]string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	tokens := make(map[string]string, len(c.Partitions))
	var missing []string
	for _, p := range c.Partitions {
		v, _ := lookup(p.TokenVar())
		v = strings.TrimSpace(v)
		if v == "" {
			missing = append(missing, p.TokenVar())
			continue
		}
		tokens[p.Name] = v
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, &MissingTokensError{Vars: slices.Compact(missing)}
	}
	return tokens, nil
}
