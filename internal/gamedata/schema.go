package gamedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/samdwyer/farmbalance/data"
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := data.FS().ReadFile(data.SchemaFile)
		if err != nil {
			schemaErr = fmt.Errorf("failed to read embedded schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(data.SchemaFile, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("failed to add catalog schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(data.SchemaFile)
	})
	return schema, schemaErr
}

// ValidateDocument checks a raw catalog document against the catalog schema.
func ValidateDocument(raw []byte) error {
	s, err := catalogSchema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("catalog does not match schema: %w", err)
	}
	return nil
}

// ParseCatalog validates a raw catalog document and builds a Catalog from it.
func ParseCatalog(raw []byte) (*Catalog, error) {
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	var file CatalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return NewCatalog(file.Items)
}

// LoadCatalogFile loads a catalog document from disk instead of the embedded default.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	catalog, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}
