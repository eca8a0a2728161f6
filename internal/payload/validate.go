// Package payload holds the JSON schemas for evidence fact_json payloads and run manifests.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a lazily compiled JSON schema.
type Schema struct {
	name  string
	build func() map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

func newSchema(name string, build func() map[string]any) *Schema {
	return &Schema{name: name, build: build}
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		b, err := json.Marshal(s.build())
		if err != nil {
			s.err = fmt.Errorf("marshal schema %s: %w", s.name, err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(s.name, bytes.NewReader(b)); err != nil {
			s.err = fmt.Errorf("add schema %s: %w", s.name, err)
			return
		}
		s.compiled, s.err = compiler.Compile(s.name)
		if s.err != nil {
			s.err = fmt.Errorf("compile schema %s: %w", s.name, s.err)
		}
	})
	return s.compiled, s.err
}

// Validate checks raw JSON against the schema.
func (s *Schema) Validate(data []byte) error {
	schema, err := s.compile()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match %s: %w", s.name, err)
	}
	return nil
}

// MarshalValid encodes v as JSON and validates it against the schema.
func (s *Schema) MarshalValid(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", s.name, err)
	}
	if err := s.Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}
