package logger

import "testing"

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format 'console', got %q", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "debug", Format: "json", Output: "stdout"}, false},
		{"valid console", Config{Level: "info", Format: "console", Output: "stderr"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("session_id", "abc", "bytes", 42)
	if m["session_id"] != "abc" {
		t.Errorf("expected session_id 'abc', got %v", m["session_id"])
	}
	if m["bytes"] != 42 {
		t.Errorf("expected bytes 42, got %v", m["bytes"])
	}

	// Odd trailing value is dropped.
	m = Fields("only_key")
	if len(m) != 0 {
		t.Errorf("expected empty map for dangling key, got %v", m)
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("converse").WithComponent("stream")
	if l == nil {
		t.Fatal("expected logger")
	}
	// Must not mutate the parent.
	parent := NewDefault("converse")
	child := parent.WithComponent("sentiment")
	if parent == child {
		t.Error("WithComponent must return a new logger")
	}
}
