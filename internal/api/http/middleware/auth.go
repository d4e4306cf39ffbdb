package middleware

import (
	"errors"
	"net/http"
	"strings"

	apimodel "aptbot/internal/api/http/utils"
	"aptbot/internal/api/http/logger"
	"aptbot/internal/auth"
	"aptbot/internal/tenant"

	"github.com/rs/zerolog"
)

var publicPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
}

func isPublic(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/swagger/")
}

// Authenticator resolves the bearer token into a tenant identity. A nil
// verifier treats every token as unverifiable.
type Authenticator struct {
	verifier auth.Verifier
	required bool
	logger   zerolog.Logger
}

func NewAuthenticator(verifier auth.Verifier, required bool, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		required: required,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

func (a *Authenticator) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r.WithContext(tenant.WithIdentity(r.Context(), tenant.Guest())))
			return
		}

		identity, reason := a.resolve(r)
		if !identity.Authenticated && a.required {
			logger.SetAction(r.Context(), "auth.rejected")
			logger.SetReason(r.Context(), reason)
			apimodel.RespondFail(w, http.StatusUnauthorized, reason, nil)
			return
		}

		logger.SetActor(r.Context(), identity.BuildingID, identity.Subject, identity.Authenticated)
		next.ServeHTTP(w, r.WithContext(tenant.WithIdentity(r.Context(), identity)))
	}
	return http.HandlerFunc(fn)
}

// resolve returns the caller identity, or a guest and the reason it is one.
func (a *Authenticator) resolve(r *http.Request) (tenant.Identity, string) {
	raw := bearerToken(r)
	if raw == "" {
		return tenant.Guest(), "authentication required"
	}
	if a.verifier == nil {
		a.logger.Warn().Msg("bearer token ignored: no verifier configured")
		return tenant.Guest(), "token verification unavailable"
	}

	claims, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		a.logger.Warn().Err(err).Msg("token rejected, continuing as guest")
		if errors.Is(err, auth.ErrTokenExpired) {
			return tenant.Guest(), "token expired"
		}
		return tenant.Guest(), "invalid token"
	}

	identity := auth.IdentityFromClaims(claims)
	if !identity.Authenticated {
		a.logger.Warn().Str("subject", identity.Subject).Msg("token has no building_id, continuing as guest")
		return tenant.Guest(), "token has no building id"
	}
	return identity, ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
