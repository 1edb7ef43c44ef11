package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func tokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTokenAndSetAuthHeader(t *testing.T) {
	var hits int32
	server := tokenServer(t, &hits)
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL})

	tok, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if tok.AccessToken != "token123" {
		t.Fatalf("unexpected token %s", tok.AccessToken)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if err := client.SetAuthHeader(context.Background(), req); err != nil {
		t.Fatalf("SetAuthHeader returned error: %v", err)
	}
	if auth := req.Header.Get("Authorization"); auth != "Bearer token123" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected cached token, endpoint hit %d times", n)
	}

	if _, err := client.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh returned error: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected refresh to hit the endpoint, got %d", n)
	}
}

func TestTokenError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer server.Close()
	client := NewClientCred(Conf{ClientID: "id", AuthURL: server.URL})
	if _, err := client.Token(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfEnabled(t *testing.T) {
	if (Conf{}).Enabled() {
		t.Fatal("empty conf must be disabled")
	}
	if !(Conf{AuthURL: "https://idp/token"}).Enabled() {
		t.Fatal("conf with auth url must be enabled")
	}
}
