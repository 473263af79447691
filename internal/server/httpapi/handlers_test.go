package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/password"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const testSecret = "test-secret"

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestServer(repo users.Repository) *Server {
	hasher := password.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte(testSecret), time.Hour)
	svc := services.NewUserService(repo, hasher, tokens)
	return NewServer(":0", discardLogger(), svc)
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func register(t *testing.T, h http.Handler, name, email, pw string) string {
	t.Helper()
	rec, body := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"name": name, "email": email, "password": pw,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	userID, _ := body["userId"].(string)
	if userID == "" {
		t.Fatalf("register: no userId in %v", body)
	}
	return userID
}

func login(t *testing.T, h http.Handler, email, pw string) string {
	t.Helper()
	rec, body := doJSON(t, h, http.MethodPost, "/login", map[string]string{
		"email": email, "password": pw,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login: no token in %v", body)
	}
	return token
}

func TestRegisterLoginMe_Roundtrip(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()

	userID := register(t, h, "Ann", "a@x.com", "secret1")
	token := login(t, h, "a@x.com", "secret1")

	rec, body := doJSON(t, h, http.MethodGet, "/me", nil, http.Header{
		"Authorization": {"Bearer " + token},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type: %q", got)
	}

	if body["message"] != "User retrieved successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["userId"] != userID || body["name"] != "Ann" || body["email"] != "a@x.com" {
		t.Fatalf("unexpected profile: %v", body)
	}
	if body["role"] != "user" || body["isActive"] != true {
		t.Fatalf("defaults not applied: %v", body)
	}
	if s, _ := body["createdAt"].(string); s == "" {
		t.Fatalf("createdAt missing: %v", body)
	}
	if _, ok := body["passwordHash"]; ok {
		t.Fatalf("password hash leaked: %v", body)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()

	rec, body := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"email": "a@x.com", "password": "secret1",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if body["message"] != "Missing name, email or password" {
		t.Fatalf("message: %v", body["message"])
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()

	rec, body := doJSON(t, h, http.MethodPost, "/register", "{not json", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if body["message"] != "Missing name, email or password" {
		t.Fatalf("message: %v", body["message"])
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()
	register(t, h, "Ann", "a@x.com", "secret1")

	rec, body := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"name": "Ann2", "email": "a@x.com", "password": "secret2",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: %d", rec.Code)
	}
	if body["message"] != "Email already registered" {
		t.Fatalf("message: %v", body["message"])
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()
	register(t, h, "Ann", "a@x.com", "secret1")

	for _, creds := range []map[string]string{
		{"email": "nobody@x.com", "password": "secret1"},
		{"email": "a@x.com", "password": "wrong"},
	} {
		rec, body := doJSON(t, h, http.MethodPost, "/login", creds, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("creds %v: status %d", creds, rec.Code)
		}
		if body["message"] != "Invalid email or password" {
			t.Fatalf("creds %v: message %v", creds, body["message"])
		}
	}
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()

	rec, body := doJSON(t, h, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if body["message"] != "Missing email or password" {
		t.Fatalf("message: %v", body["message"])
	}
}

func TestMe_AuthorizationHeaderHandling(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()
	register(t, h, "Ann", "a@x.com", "secret1")
	token := login(t, h, "a@x.com", "secret1")

	cases := []struct {
		name   string
		header http.Header
		status int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"empty header", http.Header{"Authorization": {""}}, http.StatusUnauthorized},
		{"wrong scheme", http.Header{"Authorization": {"Basic " + token}}, http.StatusUnauthorized},
		{"no token after scheme", http.Header{"Authorization": {"Bearer "}}, http.StatusUnauthorized},
		{"canonical", http.Header{"Authorization": {"Bearer " + token}}, http.StatusOK},
		{"lowercase scheme", http.Header{"Authorization": {"bearer " + token}}, http.StatusOK},
		{"lowercase header name", http.Header{"authorization": {"Bearer " + token}}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			for k, vs := range tc.header {
				for _, v := range vs {
					header.Add(k, v)
				}
			}
			rec, body := doJSON(t, h, http.MethodGet, "/me", nil, header)
			if rec.Code != tc.status {
				t.Fatalf("status: got %d want %d (%v)", rec.Code, tc.status, body)
			}
			if tc.status == http.StatusUnauthorized && body["message"] != "Missing or invalid authorization header" {
				t.Fatalf("message: %v", body["message"])
			}
		})
	}
}

func TestMe_TokenFailures(t *testing.T) {
	t.Parallel()

	repo := users.NewInMemoryRepository()
	h := newTestServer(repo).Router()
	register(t, h, "Ann", "a@x.com", "secret1")

	expired, err := auth.NewTokenService([]byte(testSecret), -time.Minute).Issue("u-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forged, err := auth.NewTokenService([]byte("other-secret"), time.Hour).Issue("u-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	anonymous, err := auth.NewTokenService([]byte(testSecret), time.Hour).Issue("", "a@x.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	dangling, err := auth.NewTokenService([]byte(testSecret), time.Hour).Issue("u-gone", "a@x.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"garbage", "not.a.token", http.StatusUnauthorized, "Invalid token"},
		{"expired", expired, http.StatusUnauthorized, "Token has expired"},
		{"forged", forged, http.StatusUnauthorized, "Invalid token"},
		{"no userId claim", anonymous, http.StatusUnauthorized, "Unauthorized: userId not found in token"},
		{"account vanished", dangling, http.StatusNotFound, "User not found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, h, http.MethodGet, "/me", nil, http.Header{
				"Authorization": {"Bearer " + tc.token},
			})
			if rec.Code != tc.status {
				t.Fatalf("status: got %d want %d (%v)", rec.Code, tc.status, body)
			}
			if body["message"] != tc.message {
				t.Fatalf("message: got %v want %q", body["message"], tc.message)
			}
		})
	}
}

type fixedUserRepo struct {
	user *models.User
}

func (r fixedUserRepo) Create(context.Context, *models.User) error { return nil }
func (r fixedUserRepo) GetByID(context.Context, string) (*models.User, error) {
	return r.user, nil
}
func (r fixedUserRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return r.user, nil
}

func TestMe_LegacyRecordWithoutCreatedAt(t *testing.T) {
	t.Parallel()

	// Records persisted before the createdAt attribute existed must not
	// surface the zero time; the field is simply absent.
	repo := fixedUserRepo{user: &models.User{
		UserID: "u-legacy",
		Name:   "Ann",
		Email:  "a@x.com",
	}}
	h := newTestServer(repo).Router()

	token, err := auth.NewTokenService([]byte(testSecret), time.Hour).Issue("u-legacy", "a@x.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec, body := doJSON(t, h, http.MethodGet, "/me", nil, http.Header{
		"Authorization": {"Bearer " + token},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body %s", rec.Code, rec.Body.String())
	}
	if _, ok := body["createdAt"]; ok {
		t.Fatalf("zero createdAt leaked into the response: %v", body)
	}
	if body["role"] != "user" || body["isActive"] != true {
		t.Fatalf("defaults not applied: %v", body)
	}
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, *models.User) error { return errors.New("store down") }
func (failingRepo) GetByID(context.Context, string) (*models.User, error) {
	return nil, errors.New("store down")
}
func (failingRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("store down")
}

func TestRegister_StorageFailure(t *testing.T) {
	t.Parallel()

	h := newTestServer(failingRepo{}).Router()

	rec, body := doJSON(t, h, http.MethodPost, "/register", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "secret1",
	}, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", rec.Code)
	}
	msg, _ := body["message"].(string)
	if !strings.HasPrefix(msg, "Internal server error: ") {
		t.Fatalf("message: %q", msg)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	h := newTestServer(users.NewInMemoryRepository()).Router()

	rec, body := doJSON(t, h, http.MethodGet, "/ping", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if body["message"] != "OK" {
		t.Fatalf("message: %v", body["message"])
	}
}
