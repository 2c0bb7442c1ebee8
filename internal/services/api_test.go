package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/portal/internal/shared"
	tu "github.com/desertthunder/portal/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/api/", customClient)

			if srv.baseURL != "http://example.com/api" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.BaseURL() != "http://localhost:5000/api" {
				t.Errorf("expected default baseURL, got %s", srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("WithRateLimit", func(t *testing.T) {
			srv := NewAPIService("", nil).WithRateLimit(5)
			if srv.limiter == nil {
				t.Fatal("expected limiter to be set")
			}
			if srv.WithRateLimit(0).limiter != nil {
				t.Error("expected zero rate to remove the limiter")
			}
		})
	})

	t.Run("Requests", func(t *testing.T) {
		tc := []struct {
			name     string
			method   string
			call     func(*APIService) (*APIResponse, error)
			wantBody string
		}{
			{
				name:   "Get",
				method: http.MethodGet,
				call:   func(s *APIService) (*APIResponse, error) { return s.Get(context.Background(), "/nodes") },
			},
			{
				name:     "Post",
				method:   http.MethodPost,
				call:     func(s *APIService) (*APIResponse, error) { return s.Post(context.Background(), "/nodes", []byte(`{"name":"web"}`)) },
				wantBody: `{"name":"web"}`,
			},
			{
				name:     "Put",
				method:   http.MethodPut,
				call:     func(s *APIService) (*APIResponse, error) { return s.Put(context.Background(), "/nodes", []byte(`{"name":"db"}`)) },
				wantBody: `{"name":"db"}`,
			},
			{
				name:   "Delete",
				method: http.MethodDelete,
				call:   func(s *APIService) (*APIResponse, error) { return s.Delete(context.Background(), "/nodes") },
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.Method != tt.method {
						t.Errorf("expected %s method, got %s", tt.method, r.Method)
					}
					if r.URL.Path != "/api/nodes" {
						t.Errorf("expected path '/api/nodes', got %s", r.URL.Path)
					}

					body, _ := io.ReadAll(r.Body)
					if string(body) != tt.wantBody {
						t.Errorf("expected body %q, got %q", tt.wantBody, string(body))
					}
					if tt.wantBody != "" && r.Header.Get("Content-Type") != "application/json" {
						t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
					}

					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("X-Custom-Header", "test-value")
					json.NewEncoder(w).Encode(map[string]string{"status": "success"})
				}))
				defer server.Close()

				resp, err := tt.call(NewAPIService(server.URL+"/api", nil))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if !resp.OK() {
					t.Errorf("expected 2xx status, got %d", resp.StatusCode)
				}
				if !resp.IsJSON || resp.JSONData == nil {
					t.Error("expected JSON response to be detected")
				}
				if resp.Headers.Get("X-Custom-Header") != "test-value" {
					t.Errorf("expected custom header to be preserved, got %s", resp.Headers.Get("X-Custom-Header"))
				}
			})
		}
	})

	t.Run("Non-JSON Response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("plain text response"))
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.IsJSON || resp.JSONData != nil {
			t.Error("expected response to not be JSON")
		}
		if string(resp.Body) != "plain text response" {
			t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
		}
	})

	t.Run("Failed Request Creation", func(t *testing.T) {
		_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
		if err == nil || !strings.Contains(err.Error(), "failed to create request") {
			t.Errorf("expected 'failed to create request' error, got %v", err)
		}
	})

	t.Run("Failed HTTP Request", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

		_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
		if err == nil || !strings.Contains(err.Error(), "request failed") {
			t.Errorf("expected 'request failed' error, got %v", err)
		}
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Failed Response Body Read", func(t *testing.T) {
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil),
		}

		_, err := NewAPIService("http://example.com", client).Post(context.Background(), "/test", []byte("data"))
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected 'failed to read response' error, got %v", err)
		}
	})

	t.Run("With Canceled Context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test"); err == nil {
			t.Error("expected error for canceled context")
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil).WithRateLimit(0.001)
		if _, err := srv.Get(context.Background(), "/a"); err != nil {
			t.Fatalf("first request should use the burst token: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := srv.Get(ctx, "/b"); err == nil {
			t.Error("expected second request to be rejected by the limiter")
		}
		if hits.Load() != 1 {
			t.Errorf("expected 1 request to reach the server, got %d", hits.Load())
		}
	})
}

func TestAPIError(t *testing.T) {
	tc := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		wantErr error
	}{
		{name: "server message", status: http.StatusBadRequest, body: `{"error":"No playbooks specified"}`, wantMsg: "No playbooks specified", wantErr: shared.ErrAPIRequest},
		{name: "html not found", status: http.StatusNotFound, body: "<h1>Not Found</h1>", wantMsg: "Not Found", wantErr: shared.ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: "", wantMsg: "Internal Server Error", wantErr: shared.ErrAPIRequest},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewAPIService(server.URL, nil).call(context.Background(), http.MethodGet, "/nodes", nil, nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, apiErr.Message)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
