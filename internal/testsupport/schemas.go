package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"hublink/internal/message"
	"hublink/internal/schema"
)

// SchemaFixture describes one schema document to write for a test.
type SchemaFixture struct {
	Name string
	Type message.Type
	// Properties holds additional JSON Schema constraints for the data
	// payload, keyed by property name.
	Properties map[string]any
	// Required lists data properties the schema marks as required.
	Required []string
}

// WriteSchemas renders the fixtures as JSON schema documents into dir
// and returns a DirStore over them. The rendered shape mirrors the
// gateway's schema files: messageType pinned with a const, data as an
// object schema.
func WriteSchemas(t testing.TB, dir string, fixtures ...SchemaFixture) *schema.DirStore {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, fx := range fixtures {
		data := map[string]any{"type": "object"}
		if len(fx.Properties) > 0 {
			data["properties"] = fx.Properties
		}
		if len(fx.Required) > 0 {
			data["required"] = fx.Required
		}
		doc := map[string]any{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"type":    "object",
			"properties": map[string]any{
				"messageType": map[string]any{"const": int(fx.Type)},
				"data":        data,
			},
			"required": []string{"messageType", "data"},
		}
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			t.Fatalf("marshal schema %s: %v", fx.Name, err)
		}
		target := filepath.Join(dir, fmt.Sprintf("%s.json", fx.Name))
		if err := os.WriteFile(target, raw, 0o644); err != nil {
			t.Fatalf("write schema %s: %v", fx.Name, err)
		}
	}
	return schema.NewDirStore(dir)
}
