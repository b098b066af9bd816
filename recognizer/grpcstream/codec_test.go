package grpcstream

import (
	"bytes"
	"testing"
)

func TestRawCodec_RoundTrip(t *testing.T) {
	c := rawCodec{}
	payload := []byte{0x01, 0x02, 0x03}

	data, err := c.Marshal(&payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Marshal changed payload: %v", data)
	}

	var out []byte
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Errorf("Unmarshal produced %v, want %v", out, payload)
	}
}

func TestRawCodec_RejectsWrongType(t *testing.T) {
	c := rawCodec{}
	if _, err := c.Marshal("not bytes"); err == nil {
		t.Error("expected Marshal to reject non-byte payloads")
	}
	if err := c.Unmarshal(nil, "not bytes"); err == nil {
		t.Error("expected Unmarshal to reject non-byte targets")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Address: "localhost:9090"}
	cfg.ApplyDefaults()

	if cfg.MaxChunkBytes != 20*1024 {
		t.Errorf("expected 20 KB default chunk limit, got %d", cfg.MaxChunkBytes)
	}
	if cfg.Method == "" {
		t.Error("expected default method")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestConfig_Validate_RequiresAddress(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing address")
	}
}
