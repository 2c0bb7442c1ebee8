package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:5000/api" {
			t.Errorf("expected base URL http://localhost:5000/api, got %s", config.API.BaseURL)
		}
		if config.API.RequestsPerSecond != 0 {
			t.Errorf("expected unlimited request rate, got %v", config.API.RequestsPerSecond)
		}
		if config.Sandbox.Port != 5000 {
			t.Errorf("expected sandbox port 5000, got %d", config.Sandbox.Port)
		}
		if config.Sandbox.Addr() != "127.0.0.1:5000" {
			t.Errorf("expected sandbox addr 127.0.0.1:5000, got %s", config.Sandbox.Addr())
		}
		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.API.BaseURL != DefaultConfig().API.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://portal.example.com/api"
requests_per_second = 2.5

[sandbox]
port = 8081
database = ":memory:"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://portal.example.com/api" {
			t.Errorf("expected custom base URL, got %s", config.API.BaseURL)
		}
		if config.API.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 requests per second, got %v", config.API.RequestsPerSecond)
		}
		if config.Sandbox.Port != 8081 {
			t.Errorf("expected sandbox port 8081, got %d", config.Sandbox.Port)
		}
		if config.Sandbox.PlaybooksDir != "./playbooks" {
			t.Errorf("unset fields should keep defaults, got playbooks_dir %q", config.Sandbox.PlaybooksDir)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		tt := []struct {
			name    string
			content string
		}{
			{name: "malformed toml", content: "[api\nbase_url ="},
			{name: "relative base url", content: "[api]\nbase_url = \"/api\""},
			{name: "negative rate", content: "[api]\nrequests_per_second = -1"},
			{name: "port out of range", content: "[sandbox]\nport = 70000"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tc.content), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(configPath)
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestEventsEndpoint(t *testing.T) {
	tt := []struct {
		name    string
		base    string
		events  string
		want    string
		wantErr bool
	}{
		{
			name: "derived from http",
			base: "http://localhost:5000/api",
			want: "ws://localhost:5000/socket.io/?EIO=4&transport=websocket",
		},
		{
			name: "derived from https",
			base: "https://portal.example.com/api",
			want: "wss://portal.example.com/socket.io/?EIO=4&transport=websocket",
		},
		{
			name:   "explicit events url wins",
			base:   "http://localhost:5000/api",
			events: "ws://events.local/socket.io/",
			want:   "ws://events.local/socket.io/",
		},
		{
			name:    "unsupported scheme",
			base:    "ftp://localhost/api",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			config.API.BaseURL = tc.base
			config.API.EventsURL = tc.events

			got, err := config.EventsEndpoint()
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("EventsEndpoint() = %s, want %s", got, tc.want)
			}
		})
	}
}
