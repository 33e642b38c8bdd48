package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "keyadmin/internal/pkg/errors"
	"keyadmin/internal/platform/config"
	"keyadmin/internal/platform/models"
)

func testClient(t *testing.T, handler http.Handler, onUnauthorized UnauthorizedHook) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.BackendConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second}
	client, err := NewClient(cfg, func(context.Context) string { return "test-token" }, onUnauthorized)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	return client, server
}

func TestClient_CreateKeyDispatch(t *testing.T) {
	tests := []struct {
		capability models.KeyCapability
		path       string
	}{
		{models.CapabilityFull, "/private-ai-keys"},
		{models.CapabilityLLM, "/private-ai-keys/token"},
		{models.CapabilityVector, "/private-ai-keys/vector-db"},
	}

	for _, tt := range tests {
		t.Run(string(tt.capability), func(t *testing.T) {
			var gotPath string
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				fmt.Fprint(w, `{"id": 100, "name": "my-key", "region": "eu-west", "owner_id": 4}`)
			}), nil)

			key, err := client.CreateKey(context.Background(), 7, "my-key", tt.capability)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if gotPath != tt.path {
				t.Errorf("capability %s hit %s, want %s", tt.capability, gotPath, tt.path)
			}
			if key.ID != 100 {
				t.Errorf("unexpected key %+v", key)
			}
		})
	}
}

func TestClient_ListKeysScopeFilter(t *testing.T) {
	var gotQuery string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `[{"id": 1, "name": "alpha", "owner_id": 4}]`)
	}), nil)

	keys, err := client.ListKeys(context.Background(), 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery != "owner_id=4" {
		t.Errorf("expected owner_id filter, got query %q", gotQuery)
	}
	if len(keys) != 1 || keys[0].Name != "alpha" {
		t.Errorf("unexpected keys %+v", keys)
	}
}

func TestClient_BearerAttached(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}), nil)

	if _, err := client.ListRegions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer credential on every call, got %q", gotAuth)
	}
}

func TestClient_UnauthorizedTripsHook(t *testing.T) {
	tripped := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), func() { tripped++ })

	_, err := client.ListUsers(context.Background())
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tripped != 1 {
		t.Errorf("expected unauthorized hook to fire, fired %d times", tripped)
	}
}

func TestClient_ErrorDetailSurfaced(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"detail": "key name already in use"}`)
	}), nil)

	_, err := client.CreateKey(context.Background(), 7, "dup", models.CapabilityFull)
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Detail != "key name already in use" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestClient_MalformedBodyIsDecodeError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	}), nil)

	_, err := client.FetchSpend(context.Background(), 42)
	var decodeErr *apperrors.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestClient_RejectsDoubleOwnership(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "name": "alpha", "owner_id": 4, "team_id": 9}]`)
	}), nil)

	_, err := client.ListKeys(context.Background(), 0)
	var decodeErr *apperrors.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("a key owned by both user and team must fail boundary parsing, got %v", err)
	}
}

func TestClient_RejectsOrphanKey(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "name": "orphan"}]`)
	}), nil)

	_, err := client.ListKeys(context.Background(), 0)
	var decodeErr *apperrors.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("a key with neither owner nor team must fail boundary parsing, got %v", err)
	}
}

func TestClient_SpendSnapshot(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/private-ai-keys/42/spend" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"spend": 12.5, "max_budget": 100, "budget_duration": "30d"}`)
	}), nil)

	snap, err := client.FetchSpend(context.Background(), 42)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if snap.Spend != 12.5 || snap.MaxBudget == nil || *snap.MaxBudget != 100 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.BudgetDuration == nil || *snap.BudgetDuration != "30d" {
		t.Errorf("budget duration missing: %+v", snap)
	}
}
