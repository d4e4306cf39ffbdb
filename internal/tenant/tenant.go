package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidSchema = errors.New("invalid schema name")

var schemaPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

type ctxKey int

const (
	ctxIdentityKey ctxKey = iota
	ctxSchemaKey
)

// Identity is who a request (or a chat session) acts for.
// The zero value is a guest.
type Identity struct {
	Authenticated bool
	BuildingID    string
	Schema        string
	Subject       string
	Username      string
	Claims        map[string]any
}

func Guest() Identity {
	return Identity{}
}

// SameTenant reports whether two identities may share a chat session.
func (i Identity) SameTenant(other Identity) bool {
	return i.Authenticated == other.Authenticated && i.Schema == other.Schema
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxIdentityKey, id)
	if id.Authenticated && id.Schema != "" {
		return WithSchema(ctx, id.Schema)
	}
	return WithSchema(ctx, "")
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxIdentityKey).(Identity)
	return id
}

func WithSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, ctxSchemaKey, schema)
}

func SchemaFromContext(ctx context.Context) (string, bool) {
	schema, _ := ctx.Value(ctxSchemaKey).(string)
	return schema, schema != ""
}

func ValidateSchema(name string) error {
	if !schemaPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, name)
	}
	return nil
}

// SchemaForBuilding maps a building id to its database schema.
// Each building owns a schema of the same name.
func SchemaForBuilding(buildingID string) string {
	return buildingID
}
