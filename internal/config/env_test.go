package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvServerURL, "ws://already-set")

	path := filepath.Join(t.TempDir(), ".env")
	data := "PLATFORMER_TOKEN=abc123\nPLATFORMER_SERVER_URL=ws://from-file\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// godotenv only fills variables that are unset.
	os.Unsetenv(EnvToken)
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv(EnvToken); got != "abc123" {
		t.Errorf("token = %q, expected %q", got, "abc123")
	}
	if got := os.Getenv(EnvServerURL); got != "ws://already-set" {
		t.Errorf("server url = %q, expected existing value", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadEnvFile(missing) = %v, expected nil", err)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantURL   string
		wantToken string
		wantTopic string
	}{
		{"nothing set", nil, "", "", "score:platformer"},
		{
			"all set",
			map[string]string{EnvServerURL: "ws://h/socket/websocket", EnvToken: "t", EnvTopic: "score:other"},
			"ws://h/socket/websocket", "t", "score:other",
		},
		{"empty keeps config", map[string]string{EnvTopic: ""}, "", "", "score:platformer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{EnvServerURL, EnvToken, EnvTopic} {
				t.Setenv(k, tc.env[k])
			}
			cfg := DefaultConfig()
			ApplyEnv(&cfg)
			if cfg.Sync.ServerURL != tc.wantURL {
				t.Errorf("ServerURL = %q, expected %q", cfg.Sync.ServerURL, tc.wantURL)
			}
			if cfg.Sync.Token != tc.wantToken {
				t.Errorf("Token = %q, expected %q", cfg.Sync.Token, tc.wantToken)
			}
			if cfg.Sync.Topic != tc.wantTopic {
				t.Errorf("Topic = %q, expected %q", cfg.Sync.Topic, tc.wantTopic)
			}
		})
	}
}
