package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/votehub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminPrincipal returns an authenticated admin for handler tests.
func AdminPrincipal() *auth.Principal {
	return &auth.Principal{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Admin: true,
	}
}

// VoterPrincipal returns an authenticated non-admin for handler tests.
func VoterPrincipal() *auth.Principal {
	return &auth.Principal{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Voter",
		Email: "voter@test.com",
		NIM:   "0000001",
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the token middleware and injects the user directly.
func WithUser(r *http.Request, p *auth.Principal) *http.Request {
	return auth.WithTestUser(r, p)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request whose body is v encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes a recorded response body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}
