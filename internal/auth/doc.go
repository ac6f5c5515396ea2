// Package auth provides bearer-token authentication for the haptics API.
//
// It implements a 2-tier role model (viewer → operator) with:
//   - Argon2id hashing of client secrets (only the hash is configured)
//   - Short-lived HS256 JWT access tokens validated by signature only
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Clients are listed under api.auth.clients. A client exchanges its name
// and secret for an access token:
//
//	a, err := auth.NewAuthenticator(cfg.API.Auth)
//	tok, err := a.IssueToken("scene-engine", secret)
//	claims, err := a.ParseToken(tok.AccessToken)
//	if !auth.HasPermission(claims.Role, auth.PermHapticsOperate) { ... }
package auth
