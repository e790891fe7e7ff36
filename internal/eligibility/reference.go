package eligibility

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReferenceTables are the lookup tables joined against every export row.
// They are loaded once per run and never mutated during evaluation.
type ReferenceTables struct {
	// Status maps an appointment status code to its send flag.
	Status map[string]bool
	// Procedure maps a procedure id to its send flag.
	Procedure map[string]bool
	// Site maps a site id to its send flag.
	Site map[string]bool
	// Address maps a site id to its postal address.
	Address map[string]string
	// Doctor maps a doctor code to the doctor's display name.
	Doctor map[string]string
}

// NewReferenceTables returns empty, ready to fill tables.
func NewReferenceTables() *ReferenceTables {
	return &ReferenceTables{
		Status:    make(map[string]bool),
		Procedure: make(map[string]bool),
		Site:      make(map[string]bool),
		Address:   make(map[string]string),
		Doctor:    make(map[string]string),
	}
}

// Flag is a send flag as written in the reference workbook. It accepts YAML
// booleans and the strings "Si", "Sí" and "No" in any case.
type Flag bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: send flag must be a scalar", value.Line)
	}
	switch strings.ToLower(strings.TrimSpace(value.Value)) {
	case "true", "si", "sí", "yes":
		*f = true
	case "false", "no":
		*f = false
	default:
		return fmt.Errorf("line %d: invalid send flag %q (want Si/No or true/false)", value.Line, value.Value)
	}
	return nil
}

// referenceFile is the on-disk YAML layout. Lists rather than maps keep the
// source order, which decides which duplicate procedure entry wins.
type referenceFile struct {
	Status []struct {
		Code string `yaml:"code"`
		Send Flag   `yaml:"send"`
	} `yaml:"status"`
	Procedure []struct {
		ID   string `yaml:"id"`
		Send Flag   `yaml:"send"`
	} `yaml:"procedure"`
	Site []struct {
		Site string `yaml:"site"`
		Send Flag   `yaml:"send"`
	} `yaml:"site"`
	Address []struct {
		Site    string `yaml:"site"`
		Address string `yaml:"address"`
	} `yaml:"address"`
	Doctor []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"doctor"`
}

// LoadReferenceTables reads the reference tables YAML file at path.
func LoadReferenceTables(path string) (*ReferenceTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference tables: %w", err)
	}
	return ParseReferenceTables(data)
}

// ParseReferenceTables decodes reference tables from YAML.
//
// Duplicate procedure ids keep the first occurrence. A duplicate key in any
// other table is an error, since the intended value cannot be known.
// Unknown fields are rejected to catch typos.
func ParseReferenceTables(data []byte) (*ReferenceTables, error) {
	var file referenceFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse reference tables: %w", err)
	}

	refs := NewReferenceTables()

	for _, s := range file.Status {
		if err := putUnique(refs.Status, "status", s.Code, bool(s.Send)); err != nil {
			return nil, err
		}
	}
	for _, p := range file.Procedure {
		key := strings.TrimSpace(p.ID)
		if _, seen := refs.Procedure[key]; seen {
			continue
		}
		refs.Procedure[key] = bool(p.Send)
	}
	for _, s := range file.Site {
		if err := putUnique(refs.Site, "site", s.Site, bool(s.Send)); err != nil {
			return nil, err
		}
	}
	for _, a := range file.Address {
		if err := putUnique(refs.Address, "address", a.Site, strings.TrimSpace(a.Address)); err != nil {
			return nil, err
		}
	}
	for _, d := range file.Doctor {
		if err := putUnique(refs.Doctor, "doctor", d.Code, strings.TrimSpace(d.Name)); err != nil {
			return nil, err
		}
	}

	return refs, nil
}

func putUnique[V any](m map[string]V, table, key string, value V) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s table: empty key", table)
	}
	if _, exists := m[key]; exists {
		return fmt.Errorf("%s table: duplicate key %q", table, key)
	}
	m[key] = value
	return nil
}
