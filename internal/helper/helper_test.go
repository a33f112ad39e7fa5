package helper

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestNewID(t *testing.T) {
	a, err := NewID()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("not a uuid: %q", a)
	}
	b, _ := NewID()
	if a == b {
		t.Fatalf("ids must differ")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"points": 20}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "{\n  \"points\": 20\n}\n" {
		t.Fatalf("got %q", buf.String())
	}
	if err := WriteJSON(&buf, func() {}); err == nil {
		t.Fatalf("expected error for unsupported value")
	}
}

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	SetupLogger("warn", &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}

	SetupLogger("nonsense", &buf)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("level: got %v", zerolog.GlobalLevel())
	}
}
