package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Config holds the session token settings.
type Config struct {
	Secret string        `env:"SESSION_JWT_SECRET,required"`
	Issuer string        `env:"SESSION_JWT_ISSUER"`
	Leeway time.Duration `env:"SESSION_JWT_LEEWAY" envDefault:"30s"`
}

// Claims are the session claims. Subject is the user id.
type Claims struct {
	jwtlib.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}

// Service signs and verifies HS256 session tokens.
type Service struct {
	key    []byte
	issuer string
	parser *jwtlib.Parser
}

// Option configures a Service.
type Option func(*options)

type options struct {
	issuer string
	leeway time.Duration
}

// WithIssuer requires tokens to carry iss.
func WithIssuer(iss string) Option {
	return func(o *options) { o.issuer = iss }
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(o *options) { o.leeway = d }
}

// New creates a Service with the given signing key.
func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(o.leeway),
	}
	if o.issuer != "" {
		parserOpts = append(parserOpts, jwtlib.WithIssuer(o.issuer))
	}

	return &Service{
		key:    key,
		issuer: o.issuer,
		parser: jwtlib.NewParser(parserOpts...),
	}, nil
}

// NewFromConfig creates a Service from Config.
func NewFromConfig(cfg Config) (*Service, error) {
	return New([]byte(cfg.Secret), WithIssuer(cfg.Issuer), WithLeeway(cfg.Leeway))
}

// Generate signs claims. The configured issuer is filled in when unset.
// Production tokens come from the identity provider; this serves tests and local tooling.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", ErrInvalidClaims
	}
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse verifies token and returns its claims.
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, errors.Join(ErrExpiredToken, err)
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return nil, errors.Join(ErrInvalidSignature, err)
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
