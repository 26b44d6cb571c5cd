// Package data provides the embedded default catalog, schema and personas.
package data

import "embed"

// dataFS embeds all catalog and persona files from the data directory at build time.
//
//go:embed *.json *.yaml
var dataFS embed.FS

// FS returns the embedded filesystem containing game data.
func FS() embed.FS {
	return dataFS
}

// Default file names inside FS.
const (
	CatalogFile  = "items.json"
	SchemaFile   = "catalog.schema.json"
	PersonasFile = "personas.yaml"
)
