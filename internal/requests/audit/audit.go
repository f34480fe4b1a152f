// Package audit implements ports.AuditLogger. Audit output is a log stream
// tagged with log_type=audit; nothing here is queryable state.
package audit

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"solicitudes/internal/requests/models"
	"solicitudes/pkg/requestcontext"
)

const (
	EventCreated       = "request.created"
	EventStatusChanged = "request.status_changed"
	EventDeleted       = "request.deleted"
	EventError         = "request.error"
)

// Nop discards every audit fact.
type Nop struct{}

func (Nop) LogCreated(context.Context, models.RequestID, string) {}
func (Nop) LogStatusChanged(context.Context, models.RequestID, models.Status, models.Status, bool) {
}
func (Nop) LogDeleted(context.Context, models.RequestID, string)     {}
func (Nop) LogError(context.Context, string, string, map[string]any) {}

// SlogLogger writes audit facts as structured log records.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) LogCreated(ctx context.Context, id models.RequestID, documentName string) {
	l.logAudit(ctx, slog.LevelInfo, EventCreated,
		"solicitud_id", id.Int64(),
		"document_name", documentName,
	)
}

func (l *SlogLogger) LogStatusChanged(ctx context.Context, id models.RequestID, from, to models.Status, forced bool) {
	l.logAudit(ctx, slog.LevelInfo, EventStatusChanged,
		"solicitud_id", id.Int64(),
		"previous_status", string(from),
		"new_status", string(to),
		"forced", forced,
	)
}

func (l *SlogLogger) LogDeleted(ctx context.Context, id models.RequestID, documentName string) {
	l.logAudit(ctx, slog.LevelInfo, EventDeleted,
		"solicitud_id", id.Int64(),
		"document_name", documentName,
	)
}

func (l *SlogLogger) LogError(ctx context.Context, operation, message string, fields map[string]any) {
	attrs := []any{"operation", operation, "message", message}
	if len(fields) > 0 {
		attrs = append(attrs, "context", fields)
	}
	l.logAudit(ctx, slog.LevelError, EventError, attrs...)
}

func (l *SlogLogger) logAudit(ctx context.Context, level slog.Level, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		attributes = append(attributes, "client_ip", ip)
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		attributes = append(attributes, "user_agent", ua)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	l.logger.Log(ctx, level, event, args...)
}

// FileLogger appends audit facts as JSON lines to a size-rotated file.
type FileLogger struct {
	*SlogLogger
	out io.WriteCloser
}

// FileOptions controls rotation of the audit file.
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func NewFileLogger(path string, opts FileOptions) *FileLogger {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return newWriterLogger(out)
}

func newWriterLogger(out io.WriteCloser) *FileLogger {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &FileLogger{
		SlogLogger: NewSlogLogger(slog.New(handler)),
		out:        out,
	}
}

func (l *FileLogger) Close() error {
	return l.out.Close()
}
