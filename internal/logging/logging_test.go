package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", "json", &buf)
	log.WithField("session", "s1").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["session"] != "s1" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	log := NewWithOutput("loud", "text", &bytes.Buffer{})
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", log.GetLevel())
	}
}
