package filemanager

import (
	"strings"
	"testing"
)

func TestHashBytes(t *testing.T) {
	hash := HashBytes([]byte("hello world"))
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("hash should start with sha256: prefix, got %q", hash)
	}
	if len(hash) != 71 { // "sha256:" (7) + 64 hex chars
		t.Errorf("hash length = %d, want 71", len(hash))
	}

	// Same input should produce same hash
	hash2 := HashBytes([]byte("hello world"))
	if hash != hash2 {
		t.Error("same input should produce same hash")
	}

	// Different input should produce different hash
	hash3 := HashBytes([]byte("hello world!"))
	if hash == hash3 {
		t.Error("different input should produce different hash")
	}
}

func TestHashJSONIgnoresFormatting(t *testing.T) {
	a, err := HashJSON([]byte(`{"b":1,"a":[1,2]}`))
	if err != nil {
		t.Fatalf("HashJSON() error: %v", err)
	}
	b, err := HashJSON([]byte("{\n  \"a\": [1, 2],\n  \"b\": 1\n}"))
	if err != nil {
		t.Fatalf("HashJSON() error: %v", err)
	}
	if a != b {
		t.Errorf("key order and whitespace should not change the digest: %s != %s", a, b)
	}

	c, _ := HashJSON([]byte(`{"a":[2,1],"b":1}`))
	if a == c {
		t.Error("array order is significant and should change the digest")
	}
}

func TestHashJSONInvalid(t *testing.T) {
	if _, err := HashJSON([]byte(`{"a":`)); err == nil {
		t.Error("HashJSON() should error for invalid JSON")
	}
}
