package db

import (
	"context"
	"strings"

	"aptbot/internal/tenant"
)

// InjectSchema replaces every {schema} placeholder with the bracketed
// schema bound to ctx.
func InjectSchema(ctx context.Context, query string) (string, error) {
	schema, ok := tenant.SchemaFromContext(ctx)
	if !ok {
		return "", ErrNoSchema
	}
	if err := tenant.ValidateSchema(schema); err != nil {
		return "", err
	}
	return strings.ReplaceAll(query, SchemaPlaceholder, "["+schema+"]"), nil
}
