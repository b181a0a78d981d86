package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintfLogger_PrintfIsDebug(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrintfLogger(NewTextLogger(&buf, slog.LevelDebug))

	p.Printf("OK   %s (%s)\n", "00001_create_metadata.sql", "1ms")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="OK   00001_create_metadata.sql (1ms)"`)
}

func TestPrintfLogger_HiddenAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrintfLogger(NewTextLogger(&buf, slog.LevelInfo))

	p.Printf("goose: no migrations to run. current version: %d", 1)
	assert.Empty(t, buf.String())
}

func TestPrintfLogger_FatalfLogsAndExits(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrintfLogger(NewTextLogger(&buf, slog.LevelInfo))
	code := -1
	p.exit = func(c int) { code = c }

	p.Fatalf("failed to open %s", "db")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `msg="failed to open db"`)
}
