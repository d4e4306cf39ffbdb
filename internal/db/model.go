package db

import "errors"

var ErrNoSchema = errors.New("cannot execute query: no schema context")

// Row is one result row keyed by column name.
type Row = map[string]any

const (
	Driver            = "sqlserver"
	SchemaPlaceholder = "{schema}"
)
