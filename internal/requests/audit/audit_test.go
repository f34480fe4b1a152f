package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/pkg/requestcontext"
)

var (
	_ ports.AuditLogger = Nop{}
	_ ports.AuditLogger = (*SlogLogger)(nil)
	_ ports.AuditLogger = (*FileLogger)(nil)
)

func decodeLines(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "curl/8.5.0")

	l.LogCreated(ctx, 7, "Contrato")
	l.LogStatusChanged(ctx, 7, models.StatusPending, models.StatusApproved, false)
	l.LogDeleted(context.Background(), 7, "Contrato")
	l.LogError(ctx, "update_status", "save failed", map[string]any{"id": 7})

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 4)

	created := lines[0]
	assert.Equal(t, EventCreated, created["event"])
	assert.Equal(t, "audit", created["log_type"])
	assert.Equal(t, "req-123", created["request_id"])
	assert.Equal(t, "203.0.113.9", created["client_ip"])
	assert.Equal(t, "curl/8.5.0", created["user_agent"])
	assert.EqualValues(t, 7, created["solicitud_id"])
	assert.Equal(t, "Contrato", created["document_name"])
	assert.Equal(t, "INFO", created["level"])

	changed := lines[1]
	assert.Equal(t, EventStatusChanged, changed["event"])
	assert.Equal(t, "pending", changed["previous_status"])
	assert.Equal(t, "approved", changed["new_status"])
	assert.Equal(t, false, changed["forced"])

	deleted := lines[2]
	assert.Equal(t, EventDeleted, deleted["event"])
	assert.NotContains(t, deleted, "request_id")
	assert.NotContains(t, deleted, "user_agent")

	failed := lines[3]
	assert.Equal(t, EventError, failed["event"])
	assert.Equal(t, "ERROR", failed["level"])
	assert.Equal(t, "update_status", failed["operation"])
	assert.Equal(t, map[string]any{"id": float64(7)}, failed["context"])
}

func TestFileLoggerAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "solicitudes.log")
	l := NewFileLogger(path, FileOptions{MaxSizeMB: 1})

	l.LogCreated(context.Background(), 1, "Factura")
	l.LogStatusChanged(context.Background(), 1, models.StatusPending, models.StatusRejected, true)
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := decodeLines(t, raw)
	require.Len(t, lines, 2)
	assert.Equal(t, EventCreated, lines[0]["event"])
	assert.Equal(t, true, lines[1]["forced"])
}

func TestNopAcceptsEverything(t *testing.T) {
	var l ports.AuditLogger = Nop{}
	assert.NotPanics(t, func() {
		l.LogCreated(context.Background(), 1, "x")
		l.LogError(context.Background(), "op", "msg", nil)
	})
}
