package auth

import (
	"strings"

	"aptbot/internal/tenant"
)

// ExtractBuildingID looks for the building in, by priority: the
// building_id claim, custom_claims.building_id, then the first realm role
// mentioning "building".
func ExtractBuildingID(claims map[string]any) string {
	if id := stringClaim(claims["building_id"]); id != "" {
		return id
	}

	if custom, ok := claims["custom_claims"].(map[string]any); ok {
		if id := stringClaim(custom["building_id"]); id != "" {
			return id
		}
	}

	if realm, ok := claims["realm_access"].(map[string]any); ok {
		for _, role := range toStrings(realm["roles"]) {
			if strings.Contains(strings.ToLower(role), "building") {
				return role
			}
		}
	}
	return ""
}

// IdentityFromClaims is authenticated only when the token names a building
// whose schema name is usable.
func IdentityFromClaims(claims map[string]any) tenant.Identity {
	id := tenant.Identity{
		Subject:  stringClaim(claims["sub"]),
		Username: stringClaim(claims["preferred_username"]),
		Claims:   claims,
	}
	buildingID := ExtractBuildingID(claims)
	if buildingID == "" {
		return id
	}
	schema := tenant.SchemaForBuilding(buildingID)
	if err := tenant.ValidateSchema(schema); err != nil {
		return id
	}
	id.BuildingID = buildingID
	id.Schema = schema
	id.Authenticated = true
	return id
}

func stringClaim(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []string:
		if len(s) > 0 {
			return strings.TrimSpace(s[0])
		}
	case []any:
		if len(s) > 0 {
			if str, ok := s[0].(string); ok {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
