package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoparts_quotes_backend/platform/logger"
)

func TestSendTextPostsToInstance(t *testing.T) {
	var gotPath, gotKey string
	var gotBody sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.Nop())
	ep := Endpoint{BaseURL: srv.URL + "/", APIKey: "secret", Instance: "oficina"}
	if err := client.SendText(context.Background(), ep, "+55 (11) 98765-4321", "ola"); err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}

	if gotPath != "/message/sendText/oficina" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("expected apikey header, got %q", gotKey)
	}
	if gotBody.Number != "5511987654321" || gotBody.Text != "ola" {
		t.Fatalf("unexpected body %+v", gotBody)
	}
}

func TestSendTextRejectsShortNumberWithoutNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	client := NewClient(time.Second, logger.Nop())
	err := client.SendText(context.Background(), Endpoint{BaseURL: srv.URL, Instance: "x"}, "98765432", "ola")
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	if called {
		t.Fatal("expected no request to reach the gateway")
	}
}

func TestSendMediaSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "instance closed", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.Nop())
	err := client.SendMedia(context.Background(), Endpoint{BaseURL: srv.URL, Instance: "x"}, "5511987654321", Media{URL: "https://cdn/x.jpg"})
	if err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestConnectionStateDecodesInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instance/connectionState/x" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"instance":{"instanceName":"x","state":"open"}}`))
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.Nop())
	state, err := client.ConnectionState(context.Background(), Endpoint{BaseURL: srv.URL, Instance: "x"})
	if err != nil {
		t.Fatalf("ConnectionState returned error: %v", err)
	}
	if state.State != "open" || state.Instance != "x" {
		t.Fatalf("unexpected state %+v", state)
	}
}
