package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
	})
	return &buf
}

func TestLog_JSONWithRedaction(t *testing.T) {
	buf := captureDefault(t)

	Info("associado created", "cpf", "12345678909", "email", "ana.maria@x.com", "detail", "dup for bob@y.org")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "associado created", entry["msg"])
	assert.Equal(t, "***09", entry["cpf"])
	assert.Equal(t, "an***@x.com", entry["email"])
	assert.Equal(t, "dup for bo***@y.org", entry["detail"])
}

func TestLog_RedactsEmbeddedCPF(t *testing.T) {
	buf := captureDefault(t)

	Warn("lookup", "path", "/api/associados/123.456.789-09")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/api/associados/***09", entry["path"])
}

func TestLog_LevelFilter(t *testing.T) {
	buf := captureDefault(t)
	SetLevel(WARN)

	Info("hidden")
	Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactCPF(t *testing.T) {
	assert.Equal(t, "***09", RedactCPF("123.456.789-09"))
	assert.Equal(t, "***", RedactCPF("1"))
}
