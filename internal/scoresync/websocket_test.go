package scoresync

import "testing"

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		token    string
		expected string
	}{
		{"with token", "ws://localhost:4000/socket/websocket", "abc", "ws://localhost:4000/socket/websocket?token=abc&vsn=1.0.0"},
		{"anonymous", "ws://localhost:4000/socket/websocket", "", "ws://localhost:4000/socket/websocket?vsn=1.0.0"},
		{"keeps query", "wss://h/socket/websocket?vsn=2.0.0&x=1", "", "wss://h/socket/websocket?vsn=1.0.0&x=1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := socketURL(tc.server, tc.token)
			if err != nil {
				t.Fatalf("socketURL() error = %v", err)
			}
			if got := u.String(); got != tc.expected {
				t.Errorf("socketURL() = %q, expected %q", got, tc.expected)
			}
		})
	}

	if _, err := socketURL("://bad", ""); err == nil {
		t.Error("socketURL(invalid) should fail")
	}
}
