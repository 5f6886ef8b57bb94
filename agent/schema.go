package agent

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor derives a JSON schema map from a Go struct type. Struct tags
// control the output: `json` names the property, `jsonschema` adds
// description and constraints. Optional fields use `json:",omitempty"`.
func SchemaFor[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		// Reflect output always marshals; reaching here means a broken
		// custom JSON marshaler on the input type.
		panic("agent: cannot marshal derived schema: " + err.Error())
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		panic("agent: cannot decode derived schema: " + err.Error())
	}

	// The reflector emits draft metadata the providers don't want.
	delete(m, "$schema")
	delete(m, "$id")
	return m
}
