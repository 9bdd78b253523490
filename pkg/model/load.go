package model

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan is returned when a plan file is structurally unusable.
var ErrInvalidPlan = errors.New("invalid plan")

// UnmarshalYAML implements yaml.Unmarshaler, accepting any case for the units.
func (z *ZUnits) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch u := ZUnits(strings.ToLower(strings.TrimSpace(s))); u {
	case ZNone, ZDepth, ZAltitude, ZHeight:
		*z = u
	case "":
		*z = ZNone
	default:
		return fmt.Errorf("unknown z units %q", s)
	}
	return nil
}

// ParsePlan decodes a plan from YAML bytes.
func ParsePlan(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlan reads and decodes a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return ParsePlan(data)
}

// Canonical returns a stable serialization of the plan, used for checksums.
func (p *Plan) Canonical() ([]byte, error) {
	return yaml.Marshal(p)
}
