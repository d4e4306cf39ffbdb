package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aptbot/internal/config"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoVerifier   = errors.New("no token verification configured")
)

const (
	acceptableSkew     = 30 * time.Second
	jwksRefreshMinimum = 15 * time.Minute
)

// NewVerifier picks the strongest mode the configuration allows:
// a static public key, then a JWKS endpoint, then unverified decoding.
func NewVerifier(ctx context.Context, kc config.KeycloakConfig, ac config.AuthConfig, logger zerolog.Logger) (Verifier, error) {
	validate := validateOptions(kc)
	parseValidate := []jwt.ParseOption{jwt.WithValidate(true)}
	for _, o := range validate {
		parseValidate = append(parseValidate, o)
	}

	if kc.PublicKey != "" {
		key, err := ParsePublicKey(kc.PublicKey)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("mode", "public_key").Msg("token verification configured")
		return &signedVerifier{
			parse: append([]jwt.ParseOption{jwt.WithKey(jwa.RS256, key)}, parseValidate...),
		}, nil
	}

	if kc.JWKSURL != "" {
		cache := jwk.NewCache(ctx)
		if err := cache.Register(kc.JWKSURL, jwk.WithMinRefreshInterval(jwksRefreshMinimum)); err != nil {
			return nil, fmt.Errorf("register jwks %s: %w", kc.JWKSURL, err)
		}
		set := jwk.NewCachedSet(cache, kc.JWKSURL)
		logger.Info().Str("mode", "jwks").Str("url", kc.JWKSURL).Msg("token verification configured")
		return &signedVerifier{
			parse: append([]jwt.ParseOption{jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true))}, parseValidate...),
		}, nil
	}

	if ac.AllowUnverified {
		logger.Warn().Str("mode", "unverified").Msg("token signatures are NOT verified")
		return &unverifiedVerifier{validate: validate}, nil
	}
	return nil, ErrNoVerifier
}

func validateOptions(kc config.KeycloakConfig) []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithAcceptableSkew(acceptableSkew),
	}
	if kc.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(kc.Issuer))
	}
	if kc.Audience != "" {
		opts = append(opts, jwt.WithAudience(kc.Audience))
	}
	return opts
}

// ParsePublicKey accepts a PEM block or the bare base64 body Keycloak shows
// in its realm key settings.
func ParsePublicKey(raw string) (jwk.Key, error) {
	key, err := jwk.ParseKey([]byte(normalizePEM(raw)), jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse keycloak public key: %w", err)
	}
	return key, nil
}

func normalizePEM(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "-----BEGIN") {
		return raw
	}
	body := strings.Join(strings.Fields(raw), "")
	var b strings.Builder
	b.WriteString("-----BEGIN PUBLIC KEY-----\n")
	for len(body) > 64 {
		b.WriteString(body[:64])
		b.WriteByte('\n')
		body = body[64:]
	}
	if body != "" {
		b.WriteString(body)
		b.WriteByte('\n')
	}
	b.WriteString("-----END PUBLIC KEY-----\n")
	return b.String()
}

type signedVerifier struct {
	parse []jwt.ParseOption
}

func (v *signedVerifier) Verify(ctx context.Context, raw string) (map[string]any, error) {
	opts := append([]jwt.ParseOption{jwt.WithContext(ctx)}, v.parse...)
	tok, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return nil, classify(err)
	}
	return claims(ctx, tok)
}

type unverifiedVerifier struct {
	validate []jwt.ValidateOption
}

func (v *unverifiedVerifier) Verify(ctx context.Context, raw string) (map[string]any, error) {
	tok, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, classify(err)
	}
	if err := jwt.Validate(tok, v.validate...); err != nil {
		return nil, classify(err)
	}
	return claims(ctx, tok)
}

func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired()) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

func claims(ctx context.Context, tok jwt.Token) (map[string]any, error) {
	m, err := tok.AsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return m, nil
}
