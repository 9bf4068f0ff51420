package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled maps a schema's canonical JSON to its compiled validator, so two
// schemas that share a name never share a validator.
var compiled sync.Map // string -> *jsonschema.Schema

// ValidateContent checks that raw is a single JSON document conforming to
// schema. A nil schema accepts anything. Failures are *ErrInvalidResponse
// carrying raw.
func ValidateContent(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(err error) error {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return invalid(errors.New("empty response"))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return invalid(fmt.Errorf("invalid JSON: %w", err))
	}

	v, err := validator(schema)
	if err != nil {
		return invalid(fmt.Errorf("schema %q: %w", schema.Name, err))
	}
	if err := v.Validate(doc); err != nil {
		return invalid(fmt.Errorf("does not match %s: %w", schema.Name, err))
	}
	return nil
}

func validator(schema *Schema) (*jsonschema.Schema, error) {
	// Marshalling normalizes Go values such as []string into plain JSON and
	// sorts map keys, which makes the bytes usable as a cache key.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	key := string(def)
	if v, ok := compiled.Load(key); ok {
		return v.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	url := "mem://schemas/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	v, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled.Store(key, v)
	return v, nil
}
