package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/furniture.json
var furnitureSchema []byte

const furnitureSchemaURL = "furniture.json"

// compileFurnitureSchema compiles the schema upsert bodies are checked against.
func compileFurnitureSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(furnitureSchemaURL, bytes.NewReader(furnitureSchema)); err != nil {
		return nil, fmt.Errorf("adding furniture schema: %w", err)
	}
	schema, err := compiler.Compile(furnitureSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling furniture schema: %w", err)
	}
	return schema, nil
}

// validateBody checks raw JSON against schema.
func validateBody(schema *jsonschema.Schema, body []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return err
	}
	return nil
}
