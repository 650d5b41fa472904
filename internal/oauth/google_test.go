package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/riocapital/blog-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogle(t *testing.T, userinfo http.HandlerFunc) *Google {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", userinfo)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.OAuthConfig{GoogleClientID: "client", GoogleClientSecret: "secret", RedirectURL: "http://localhost/cb"}
	return NewGoogle(cfg,
		WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}),
		WithUserInfoURL(srv.URL+"/userinfo"),
	)
}

func TestAuthCodeURL(t *testing.T) {
	g := NewGoogle(config.OAuthConfig{GoogleClientID: "client", GoogleClientSecret: "secret", RedirectURL: "http://localhost/cb"})

	u, err := url.Parse(g.AuthCodeURL("state-xyz"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "http://localhost/cb", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "userinfo.email")
}

func TestExchange(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"g-42","email":"ana@example.com","verified_email":true,"given_name":"Ana","family_name":"Silva"}`))
	})

	ident, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "g-42", ident.Subject)
	assert.Equal(t, "ana@example.com", ident.Email)
	assert.True(t, ident.EmailVerified)
	assert.Equal(t, "Ana", ident.GivenName)
	assert.Equal(t, "Silva", ident.FamilyName)
}

func TestExchangeBadCode(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("userinfo must not be called")
	})

	_, err := g.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = g.Exchange(context.Background(), "")
	assert.Error(t, err)
}

func TestExchangeUserInfoFailure(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := g.Exchange(context.Background(), "good-code")
	assert.ErrorContains(t, err, "status 500")
}
