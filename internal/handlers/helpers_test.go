package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/models"
)

// envelope mirrors the uniform response wrapper for decoding in tests.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()

	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode envelope data: %v", err)
	}
}

// authedRequest builds a request carrying an authenticated user in its
// context, the way the auth middleware does.
func authedRequest(method, target string, body io.Reader, user models.User) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(auth.WithUser(req.Context(), user))
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()

	if rec.Code != want {
		t.Fatalf("expected status %d got %d (body %s)", want, rec.Code, rec.Body.String())
	}
}
