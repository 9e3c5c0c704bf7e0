package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema that structured replies are checked against.
// Name keys the compile cache, so it must be unique per definition.
type Schema struct {
	Name       string
	Definition map[string]any
}

var compiled sync.Map // name -> *jsonschema.Schema

// ValidateJSON checks raw against schema. Any problem with the reply is a
// FailureMalformed so callers treat it like every other unusable reply.
// A nil schema only checks that raw is JSON.
func ValidateJSON(schema *Schema, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Fail(FailureMalformed, "", fmt.Errorf("invalid JSON: %w", err))
	}
	if schema == nil {
		return nil
	}
	s, err := compile(schema)
	if err != nil {
		return err
	}
	if err := s.Validate(parsed); err != nil {
		return Fail(FailureMalformed, "", fmt.Errorf("%s: %w", schema.Name, err))
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if s, ok := compiled.Load(schema.Name); ok {
		return s.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go maps of arbitrary types.
	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", schema.Name, err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + schema.Name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", schema.Name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}
	compiled.Store(schema.Name, s)
	return s, nil
}
