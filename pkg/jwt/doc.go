// Package jwt verifies the session tokens issued by the identity provider and
// carries the verified claims through the request context.
//
// Tokens are HS256 only; any other algorithm is rejected before the signature is
// checked. The subject claim is the user id and is required.
//
//	svc, err := jwt.NewFromConfig(cfg.Session)
//	r.Use(jwt.Middleware(svc))
//
//	userID := jwt.UserID(r.Context())
package jwt
