package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hublink/internal/logging"
	"hublink/internal/message"
)

// Catalogue holds one compiled validator per message type found in the
// store. Construction never fails outright: documents that do not compile
// are logged and skipped.
type Catalogue struct {
	validators map[message.Type]*jsonschema.Schema
	logger     *slog.Logger
}

// NewCatalogue loads and compiles the catalogue from the given store.
func NewCatalogue(store Store, logger *slog.Logger) (*Catalogue, error) {
	if store == nil {
		return nil, fmt.Errorf("schema catalogue requires a store")
	}
	log := logging.NewComponentLogger(logger, "schema")

	docs, err := store.ListSchemas()
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	c := &Catalogue{
		validators: make(map[message.Type]*jsonschema.Schema, len(docs)),
		logger:     log,
	}
	for _, doc := range docs {
		compiler := jsonschema.NewCompiler()
		url := doc.Name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(doc.Raw)); err != nil {
			log.Warn("schema document rejected",
				logging.String("schema", doc.Name),
				logging.Error(err))
			continue
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			log.Warn("schema document failed to compile",
				logging.String("schema", doc.Name),
				logging.Error(err))
			continue
		}
		if prev, ok := c.validators[doc.Type]; ok && prev != nil {
			log.Warn("duplicate schema for message type, keeping first",
				logging.String(logging.FieldMessageType, doc.Type.String()),
				logging.String("schema", doc.Name))
			continue
		}
		c.validators[doc.Type] = compiled
	}

	for _, t := range message.Types() {
		if _, ok := c.validators[t]; !ok {
			log.Debug("no catalogue entry for message type",
				logging.String(logging.FieldMessageType, t.String()))
		}
	}

	log.Debug("schema catalogue loaded", logging.Int("entries", len(c.validators)))
	return c, nil
}

// Len reports how many validators compiled.
func (c *Catalogue) Len() int { return len(c.validators) }

// Has reports whether a validator exists for the type.
func (c *Catalogue) Has(t message.Type) bool {
	_, ok := c.validators[t]
	return ok
}

// Validate checks a message against the catalogue entry for its type. The
// schema documents describe the whole frame, so the frame is rebuilt as a
// plain JSON object before validation. found is false when no entry exists;
// err carries the full validation error detail when the frame does not
// conform. Callers treat both outcomes as advisory.
func (c *Catalogue) Validate(m message.Message) (found bool, err error) {
	sch, ok := c.validators[m.Type]
	if !ok {
		return false, nil
	}
	frame := map[string]any{
		"messageType": int64(m.Type),
		"data":        normalize(m.Data),
	}
	if err := sch.Validate(frame); err != nil {
		return true, err
	}
	return true, nil
}

// normalize rewrites json.Number values into plain int64/float64 so the
// validator sees ordinary JSON number types.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return normalizeScalar(v)
	}
}

func normalizeScalar(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := num.Int64(); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}
