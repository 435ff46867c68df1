package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hublink/internal/message"
)

// Document is one catalogue entry: the message type it governs and the raw
// JSON Schema text for that type's data payload.
type Document struct {
	Type message.Type
	Name string
	Raw  []byte
}

// Store lists the schema documents that make up the catalogue.
type Store interface {
	ListSchemas() ([]Document, error)
}

// DirStore reads a catalogue from a directory of *.json schema documents.
type DirStore struct {
	dir string
}

// NewDirStore points a store at a schema directory.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// ListSchemas parses every *.json file in the directory and extracts the
// messageType constant each document declares. Files without a usable
// constant are skipped with an error entry so callers can log them.
func (s *DirStore) ListSchemas() ([]Document, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		// No catalogue shipped; validation simply has nothing to check.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schema directory %s: %w", s.dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", path, err)
		}
		t, err := declaredType(raw)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", path, err)
		}
		docs = append(docs, Document{
			Type: t,
			Name: strings.TrimSuffix(entry.Name(), ".json"),
			Raw:  raw,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Type < docs[j].Type })
	return docs, nil
}

// declaredType digs the constant integer out of the document's
// properties.messageType.const declaration.
func declaredType(raw []byte) (message.Type, error) {
	var doc struct {
		Properties struct {
			MessageType struct {
				Const *float64  `json:"const"`
				Enum  []float64 `json:"enum"`
			} `json:"messageType"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("parse schema document: %w", err)
	}
	if doc.Properties.MessageType.Const != nil {
		return message.Type(*doc.Properties.MessageType.Const), nil
	}
	if len(doc.Properties.MessageType.Enum) == 1 {
		return message.Type(doc.Properties.MessageType.Enum[0]), nil
	}
	return 0, fmt.Errorf("document declares no constant messageType")
}

// StaticStore serves a fixed set of documents. Used by tests and by hosts
// that embed their catalogue.
type StaticStore struct {
	Docs []Document
}

// ListSchemas returns the fixed document set.
func (s *StaticStore) ListSchemas() ([]Document, error) {
	return s.Docs, nil
}
