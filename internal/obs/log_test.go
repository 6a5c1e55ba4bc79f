package obs

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithTagsChildLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLoggerForTests(zerolog.New(&buf))
	t.Cleanup(func() { InitLog(LogConfig{}) })

	log := With("auth", "guards")
	log.Info().Int64("user_id", 7).Msg("role mismatch")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["category"] != "auth" || entry["source"] != "guards" {
		t.Fatalf("unexpected tags: %v", entry)
	}
	if entry["user_id"] != float64(7) || entry["message"] != "role mismatch" {
		t.Fatalf("unexpected fields: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
