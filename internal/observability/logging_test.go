package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v raw=%s", err, buf.String())
	}
	return line
}

func TestAccountLogHandlerMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newAccountLogHandler(slog.NewJSONHandler(&buf, nil)))

	logger.With("client_secret", "s3cr3t").Info("reset requested",
		"email", "rider@example.com",
		"Nonce", "abc",
		slog.Group("form", slog.String("password", "hunter22")),
	)

	line := decodeLogLine(t, &buf)
	if line["email"] != "rider@example.com" {
		t.Fatalf("expected email kept, got %v", line["email"])
	}
	if line["Nonce"] != redactedValue || line["client_secret"] != redactedValue {
		t.Fatalf("expected secrets masked, got %+v", line)
	}
	form, _ := line["form"].(map[string]any)
	if form["password"] != redactedValue {
		t.Fatalf("expected grouped password masked, got %+v", form)
	}
	if _, ok := line["trace_id"]; ok {
		t.Fatal("trace_id must be omitted without an active span")
	}
}

func TestAccountLogHandlerStampsSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("logging-test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	slog.New(newAccountLogHandler(slog.NewJSONHandler(&buf, nil))).InfoContext(ctx, "login")

	line := decodeLogLine(t, &buf)
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("unexpected trace_id: %v", line["trace_id"])
	}
	if line["span_id"] != span.SpanContext().SpanID().String() {
		t.Fatalf("unexpected span_id: %v", line["span_id"])
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
