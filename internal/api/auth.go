package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/gray-logic-haptics/internal/auth"
)

const ctxKeyClaims contextKey = "claims"

// tokenRequest is the body of POST /auth/token.
type tokenRequest struct {
	Client string `json:"client"`
	Secret string `json:"secret"`
}

// tokenResponse is returned on a successful exchange.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	Role        string `json:"role"`
}

// handleToken exchanges client credentials for an access token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Client == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "client and secret are required")
		return
	}

	tok, err := s.auth.IssueToken(req.Client, req.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("token request rejected", "client", req.Client, "request_id", requestID(r.Context()))
			writeUnauthorized(w, "invalid client credentials")
			return
		}
		s.logger.Error("issuing token failed", "client", req.Client, "error", err)
		writeInternalError(w, "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   int(tok.ExpiresIn.Seconds()),
		Role:        string(tok.Role),
	})
}

// requirePermission rejects requests whose bearer token lacks perm. With
// auth disabled it passes every request through.
func (s *Server) requirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if s.auth == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			claims, err := s.auth.ParseToken(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			if !auth.HasPermission(claims.Role, perm) {
				s.logger.Warn("permission denied",
					"client", claims.Subject,
					"role", claims.Role,
					"permission", perm,
					"request_id", requestID(r.Context()),
				)
				writeForbidden(w, "insufficient permissions")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// clientName returns the authenticated client, or "" when auth is off.
func clientName(ctx context.Context) string {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.CustomClaims) //nolint:errcheck // absent means unauthenticated
	if claims == nil {
		return ""
	}
	return claims.Subject
}
