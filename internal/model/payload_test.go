package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// NewPayloadが時刻とバージョンを埋めることを検証
func TestNewPayload_FillsTimeAndVersion(t *testing.T) {
	p := NewPayload("OK", nil)

	if p.Status != "OK" {
		t.Errorf("Status = %q, want OK", p.Status)
	}
	if p.Version != Version {
		t.Errorf("Version = %q, want %q", p.Version, Version)
	}
	if _, err := time.Parse(time.RFC3339Nano, p.Time); err != nil {
		t.Errorf("Time = %q, not RFC3339Nano: %v", p.Time, err)
	}
}

// Tokenフィールドが決してJSONにシリアライズされないことを検証
func TestPayload_TokenNeverSerialized(t *testing.T) {
	p := NewPayload("OK", map[string]string{"key": "value"})
	p.Token = "secret-session-token"

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	body := string(b)
	if strings.Contains(body, "secret-session-token") {
		t.Errorf("token leaked into JSON body: %s", body)
	}
	if strings.Contains(body, "\"token\"") {
		t.Errorf("token key present in JSON body: %s", body)
	}
}

// dataがnilの場合にdataキーが省略されることを検証
func TestPayload_OmitsNilData(t *testing.T) {
	p := NewPayload("OK", nil)

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(b), "\"data\"") {
		t.Errorf("data key should be omitted: %s", b)
	}
}
