package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-haptics/internal/auth"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/logging"
)

const testJWTSecret = "api-test-secret-key-for-jwt-signing-0123"

func authConfig(t *testing.T) config.APIConfig {
	t.Helper()
	viewerHash, err := auth.HashSecret("viewer-secret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	operatorHash, err := auth.HashSecret("operator-secret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	return config.APIConfig{
		Host: "0.0.0.0",
		Port: 0,
		Auth: config.APIAuthConfig{
			Enabled:        true,
			JWTSecret:      testJWTSecret,
			AccessTokenTTL: 15,
			Clients: []config.APIClientConfig{
				{Name: "dashboard", Role: "viewer", SecretHash: viewerHash},
				{Name: "scene-engine", Role: "operator", SecretHash: operatorHash},
			},
		},
	}
}

func (e *testEnv) doAuth(t *testing.T, method, path, body, authorization string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.http.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

func (e *testEnv) token(t *testing.T, client, secret string) string {
	t.Helper()
	resp, data := e.do(t, http.MethodPost, "/api/v1/auth/token",
		`{"client": "`+client+`", "secret": "`+secret+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token status = %d, body = %s", resp.StatusCode, data)
	}
	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		t.Fatalf("decoding token: %v", err)
	}
	if tr.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", tr.TokenType)
	}
	if tr.ExpiresIn != 15*60 {
		t.Errorf("expires_in = %d, want %d", tr.ExpiresIn, 15*60)
	}
	return tr.AccessToken
}

func TestAuth_TokenExchange(t *testing.T) {
	env := newTestEnvWithConfig(t, authConfig(t), trackpadConfig())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"wrong secret", `{"client": "dashboard", "secret": "nope"}`, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"unknown client", `{"client": "ghost", "secret": "viewer-secret"}`, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"missing secret", `{"client": "dashboard"}`, http.StatusBadRequest, ErrCodeValidation},
		{"bad json", `{`, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.do(t, http.MethodPost, "/api/v1/auth/token", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			if e := decodeError(t, data); e.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", e.Code, tt.wantCode)
			}
		})
	}

	if tok := env.token(t, "dashboard", "viewer-secret"); tok == "" {
		t.Error("token() returned empty access token")
	}
}

func TestAuth_ActuateRequiresOperator(t *testing.T) {
	env := newTestEnvWithConfig(t, authConfig(t), trackpadConfig())
	viewer := env.token(t, "dashboard", "viewer-secret")
	operator := env.token(t, "scene-engine", "operator-secret")

	expired, err := auth.GenerateAccessToken("scene-engine", auth.RoleOperator, testJWTSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	forged, err := auth.GenerateAccessToken("scene-engine", auth.RoleOperator, "some-other-secret-key-for-signing-xyz", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name          string
		authorization string
		wantStatus    int
		wantCode      string
	}{
		{"no token", "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"wrong scheme", "Basic " + operator, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"foreign signature", "Bearer " + forged, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"viewer", "Bearer " + viewer, http.StatusForbidden, ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.doAuth(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 6}`, tt.authorization)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			if e := decodeError(t, data); e.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", e.Code, tt.wantCode)
			}
			if tt.wantStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want Bearer", resp.Header.Get("WWW-Authenticate"))
			}
		})
	}

	if got := env.ctrl.Status().Attempts; got != 0 {
		t.Errorf("Attempts after rejected requests = %d, want 0", got)
	}

	resp, data := env.doAuth(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 6}`, "Bearer "+operator)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("operator actuate status = %d, body = %s", resp.StatusCode, data)
	}
}

func TestAuth_ViewerCanRead(t *testing.T) {
	env := newTestEnvWithConfig(t, authConfig(t), trackpadConfig())
	viewer := env.token(t, "dashboard", "viewer-secret")

	for _, path := range []string{"/api/v1/haptics/status", "/api/v1/haptics/patterns", "/api/v1/haptics/history"} {
		resp, data := env.doAuth(t, http.MethodGet, path, "", "Bearer "+viewer)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, body = %s", path, resp.StatusCode, data)
		}
		resp, _ = env.doAuth(t, http.MethodGet, path, "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestAuth_HealthAndMetricsStayOpen(t *testing.T) {
	env := newTestEnvWithConfig(t, authConfig(t), trackpadConfig())

	for _, path := range []string{"/api/v1/health", "/api/v1/metrics"} {
		resp, data := env.do(t, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, body = %s", path, resp.StatusCode, data)
		}
	}
}

func TestAuth_DisabledLeavesRoutesOpen(t *testing.T) {
	env := newTestEnv(t, trackpadConfig())

	resp, data := env.do(t, http.MethodPost, "/api/v1/haptics/actuate", `{"pattern": 6}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("actuate status = %d, body = %s", resp.StatusCode, data)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/token", `{"client": "x", "secret": "y"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("token endpoint status = %d, want 404 with auth disabled", resp.StatusCode)
	}
}

func TestNew_InvalidAuthConfig(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	env := newTestEnv(t, trackpadConfig())

	_, err := New(Deps{
		Config:     config.APIConfig{Auth: config.APIAuthConfig{Enabled: true, JWTSecret: "short"}},
		Logger:     log,
		Controller: env.ctrl,
	})
	if err == nil {
		t.Fatal("New() should fail with a short jwt secret")
	}
}
