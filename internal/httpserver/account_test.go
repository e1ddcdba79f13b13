package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/lineitem"
	"storefront/internal/service/checkout"
)

const signupBody = `{"username":"shopper","email":"me@example.com","password":"Abcdefg1","confirmPassword":"Abcdefg1","fullName":"Me"}`

func TestSignupHandler(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/auth/signup", "", signupBody)
	expectStatus(t, rec, http.StatusCreated)
	if !strings.Contains(rec.Body.String(), `"email":"me@example.com"`) || strings.Contains(rec.Body.String(), "Abcdefg1") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec, _ = env.do(t, http.MethodPost, "/api/auth/signup", "", signupBody)
	expectStatus(t, rec, http.StatusConflict)

	rec, _ = env.do(t, http.MethodPost, "/api/auth/signup", "", `{"username":"x","email":"x@example.com","password":"a","confirmPassword":"b"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestLoginMeLogout(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/auth/signup", "", signupBody)

	rec, sid := env.do(t, http.MethodGet, "/api/me", "", "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec, _ = env.do(t, http.MethodPost, "/api/auth/login", sid, `{"email":"me@example.com","password":"nope"}`)
	expectStatus(t, rec, http.StatusUnauthorized)
	if strings.Contains(rec.Body.String(), "password is") || strings.Contains(rec.Body.String(), "no such") {
		t.Fatalf("login failure must not say which field was wrong: %s", rec.Body.String())
	}

	rec, _ = env.do(t, http.MethodPost, "/api/auth/login", sid, `{"email":"me@example.com","password":"Abcdefg1"}`)
	expectStatus(t, rec, http.StatusOK)

	rec, _ = env.do(t, http.MethodGet, "/api/me", sid, "")
	expectStatus(t, rec, http.StatusOK)
	var resp userResponse
	decodeBody(t, rec, &resp)
	if resp.User.Username != "shopper" {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	rec, _ = env.do(t, http.MethodPatch, "/api/me", sid, `{"username":"renamed","city":"Karachi"}`)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &resp)
	if resp.User.Username != "renamed" || resp.User.City != "Karachi" {
		t.Fatalf("unexpected patched user %+v", resp.User)
	}
	name, _ := lineitem.GetString(t.Context(), env.store, sid, lineitem.KeyUsername)
	if name != "renamed" {
		t.Fatalf("expected session username refreshed, got %q", name)
	}

	rec, _ = env.do(t, http.MethodPost, "/api/auth/logout", sid, "")
	expectStatus(t, rec, http.StatusNoContent)
	rec, _ = env.do(t, http.MethodGet, "/api/me", sid, "")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestLoginStoreFailureIsServerError(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.loginErr = errors.New("redis: connection refused")

	rec, _ := env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"me@example.com","password":"Abcdefg1"}`)
	expectStatus(t, rec, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), "redis") {
		t.Fatalf("internal details leaked: %s", rec.Body.String())
	}

	rec, _ = env.do(t, http.MethodPost, "/api/checkout/login", "", `{"email":"me@example.com","password":"Abcdefg1"}`)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if !strings.Contains(rec.Body.String(), checkout.ErrTemporary.Error()) {
		t.Fatalf("expected retry message, got %s", rec.Body.String())
	}
}

func TestNewsletterHandler(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/newsletter", "", `{"email":"fan@example.com"}`)
	expectStatus(t, rec, http.StatusCreated)
	rec, _ = env.do(t, http.MethodPost, "/api/newsletter", "", `{"email":"fan@example.com"}`)
	expectStatus(t, rec, http.StatusConflict)
	rec, _ = env.do(t, http.MethodPost, "/api/newsletter", "", `{"email":"fan"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}
