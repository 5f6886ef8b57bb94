package agent

import (
	"encoding/json"
	"testing"
)

type readFileInput struct {
	Path   string `json:"path" jsonschema:"description=Relative path of the file to read"`
	Offset int    `json:"offset,omitempty" jsonschema:"description=Line to start from"`
}

func TestSchemaFor(t *testing.T) {
	schema := SchemaFor[readFileInput]()

	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}
	if _, ok := props["path"]; !ok {
		t.Error("missing path property")
	}
	if _, ok := props["offset"]; !ok {
		t.Error("missing offset property")
	}

	required := requiredFields(schema)
	if len(required) != 1 || required[0] != "path" {
		t.Errorf("expected required [path], got %v", required)
	}

	if _, ok := schema["$schema"]; ok {
		t.Error("draft metadata should be stripped")
	}
}

func TestSchemaForValidatesArguments(t *testing.T) {
	schema := SchemaFor[readFileInput]()

	if err := ValidateArguments(json.RawMessage(`{"path":"x.go"}`), schema); err != nil {
		t.Errorf("valid arguments rejected: %v", err)
	}
	if err := ValidateArguments(json.RawMessage(`{"offset":1}`), schema); err == nil {
		t.Error("missing required path should fail")
	}
	if err := ValidateArguments(json.RawMessage(`{"path":1}`), schema); err == nil {
		t.Error("wrong type for path should fail")
	}
}
