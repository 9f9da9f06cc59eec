package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/jobtrack/api"
	"github.com/garnizeh/jobtrack/internal/credentials"
	"github.com/garnizeh/jobtrack/internal/guard"
	"github.com/garnizeh/jobtrack/pkg/repository/mock"
)

func newCredentials(m *mock.Mocks) *credentials.Service {
	return credentials.NewService(m.UserRepo, bcrypt.MinCost, nil)
}

// jsonRequest builds a request with body marshalled as JSON unless it is
// already a string.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	return httptest.NewRequest(method, path, r)
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(api.WithIdentity(req.Context(), guard.Identity{UserID: userID}))
}

func register(t *testing.T, creds *credentials.Service, username string) string {
	t.Helper()
	u, err := creds.Register(context.Background(), username, "password1")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u.ID
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

var errSecret = errors.New("database is locked at /var/lib/secret.db")
