package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := hex.EncodeToString(bytes.Repeat([]byte{0xAB}, 32))
	svc, err := New(key)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}

	ciphertext, err := svc.EncryptString("SN08 BK01 0152 0001 2345 6789")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, []byte("BK01")) {
		t.Fatal("ciphertext leaks plaintext")
	}

	plain, err := svc.DecryptString(ciphertext)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "SN08 BK01 0152 0001 2345 6789" {
		t.Fatalf("round trip mismatch: %q", plain)
	}
}

func TestPassThroughWithoutKey(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Configured() {
		t.Fatal("unkeyed service must not report configured")
	}
	out, err := svc.EncryptString("plain value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(out) != "plain value" {
		t.Fatalf("expected pass-through, got %q", out)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key := hex.EncodeToString(bytes.Repeat([]byte{0x01}, 32))
	svc, err := New(key)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Decrypt([]byte("not real ciphertext at all")); err == nil {
		t.Fatal("expected decrypt failure")
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("deadbeef"); err == nil {
		t.Fatal("expected key length error")
	}
}
