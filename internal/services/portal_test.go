package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// newPortalServer serves h under /api and returns a client pointed at it.
func newPortalServer(t *testing.T, h http.HandlerFunc) *PortalService {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", h))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewPortalService(NewAPIService(server.URL+"/api", nil))
}

func TestPortalService(t *testing.T) {
	ctx := context.Background()

	t.Run("ListNodes", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/nodes" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.Write([]byte(`[{"id":1,"name":"web","hostname":"10.0.0.1","username":"root","port":22,
				"description":null,"status":"unknown","created_at":"2024-01-02T03:04:05.678901",
				"groups":[{"id":2,"name":"prod"}]}]`))
		})

		nodes, err := srv.ListNodes(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(nodes) != 1 {
			t.Fatalf("expected 1 node, got %d", len(nodes))
		}
		n := nodes[0]
		if n.Name != "web" || n.Port != 22 || len(n.Groups) != 1 || n.Groups[0].Name != "prod" {
			t.Errorf("unexpected node %+v", n)
		}
		if n.CreatedAt.IsZero() {
			t.Error("expected naive timestamp to decode")
		}
	})

	t.Run("CreateNode", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			var in models.NodeInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if r.Method != http.MethodPost || in.Port != 22 || in.Name != "db" {
				t.Errorf("unexpected request %s %+v", r.Method, in)
			}
			w.Write([]byte(`{"message":"Node created successfully","id":42}`))
		})

		id, err := srv.CreateNode(ctx, models.NodeInput{Name: "db", Hostname: "db.local", Username: "ops", Port: 22})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != 42 {
			t.Errorf("expected id 42, got %d", id)
		}
	})

	t.Run("UpdateGroup Sends Empty Member List", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/groups/3" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			ids, ok := body["node_ids"].([]any)
			if !ok || len(ids) != 0 {
				t.Errorf("expected explicit empty node_ids, got %v", body["node_ids"])
			}
			w.Write([]byte(`{"message":"Group updated successfully"}`))
		})

		if err := srv.UpdateGroup(ctx, 3, models.GroupInput{Name: "prod"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("DeleteNode Not Found", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			http.NotFound(w, r)
		})

		err := srv.DeleteNode(ctx, 9)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Execute", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if _, ok := body["group_ids"].([]any); !ok {
				t.Errorf("expected group_ids array, got %v", body["group_ids"])
			}
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"message":"Execution started","id":42}`))
		})

		id, err := srv.Execute(ctx, models.ExecuteRequest{Playbooks: []string{"site.yml"}, NodeIDs: []int{1}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != 42 {
			t.Errorf("expected execution id 42, got %d", id)
		}
	})

	t.Run("Execute Without ID", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"Execution started"}`))
		})

		id, err := srv.Execute(ctx, models.ExecuteRequest{Playbooks: []string{"site.yml"}, NodeIDs: []int{1}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != 0 {
			t.Errorf("expected no execution id, got %d", id)
		}
	})

	t.Run("Execute Rejected", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"No targets specified"}`))
		})

		_, err := srv.Execute(ctx, models.ExecuteRequest{Playbooks: []string{"site.yml"}})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "No targets specified" {
			t.Errorf("expected server message in error, got %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			var req models.PingRequest
			json.NewDecoder(r.Body).Decode(&req)
			if len(req.NodeIDs) != 2 {
				t.Errorf("expected 2 node ids, got %v", req.NodeIDs)
			}
			w.Write([]byte(`{"1":{"status":"reachable"},"2":{"status":"unreachable","error":"refused"}}`))
		})

		results, err := srv.Ping(ctx, []int{1, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results["1"].Status != "reachable" || results["2"].Error != "refused" {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("GetExecution", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/executions/5" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":5,"status":"failed","playbooks":["a.yml"],"target_nodes":[1],
				"started_at":"2024-01-02T03:04:05","completed_at":null,"output":"","error_output":"boom"}`))
		})

		e, err := srv.GetExecution(ctx, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Status != models.ExecutionFailed || e.ErrorOutput != "boom" || e.Finished() {
			t.Errorf("unexpected execution %+v", e)
		}
	})

	t.Run("PlaybookContent Escapes Name", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playbooks/web setup.yml" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			w.Write([]byte(`{"content":"- hosts: all\n"}`))
		})

		content, err := srv.PlaybookContent(ctx, "web setup.yml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if content != "- hosts: all\n" {
			t.Errorf("unexpected content %q", content)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		srv := newPortalServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"a list"}`))
		})

		if _, err := srv.ListPlaybooks(ctx); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestNewClients(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.API.BaseURL = "https://portal.example.com/api"
	cfg.API.RequestsPerSecond = 10

	clients, err := NewClients(cfg, nil, shared.NewLogger(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clients.API.BaseURL() != "https://portal.example.com/api" {
		t.Errorf("unexpected base url %s", clients.API.BaseURL())
	}
	if clients.API.limiter == nil {
		t.Error("expected rate limiter")
	}
	if clients.Events.url != "wss://portal.example.com/socket.io/?EIO=4&transport=websocket" {
		t.Errorf("unexpected events url %s", clients.Events.url)
	}

	cfg.API.BaseURL = "ftp://nope"
	if _, err := NewClients(cfg, nil, nil); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
