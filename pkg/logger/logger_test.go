package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

const infoLevel int8 = 0

func TestNewWritesJSONWithBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(Options{Level: infoLevel, Writer: &buf})

	log.Info("opened", PathKey, "a.json")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry[MessageKey] != "opened" {
		t.Errorf("message = %v, want opened", entry[MessageKey])
	}
	if entry[PathKey] != "a.json" {
		t.Errorf("path = %v, want a.json", entry[PathKey])
	}
	for _, key := range []string{TimeStampKey, CommitKey, VersionKey, BuildTimeKey, GoVersionKey} {
		if _, ok := entry[key]; !ok {
			t.Errorf("missing %q in %v", key, entry)
		}
	}
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(Options{Level: infoLevel, Writer: &buf})
	log.V(1).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("V(1) should be off at info level, got %q", buf.String())
	}

	log, _ = New(Options{Level: DebugLevel, Writer: &buf})
	log.V(1).Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("V(1) should be on at debug level, got %q", buf.String())
	}
}

func TestNewConsoleEncoder(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(Options{Writer: &buf, Console: true})
	log.Info("hello")
	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "hello") {
		t.Fatalf("expected console line, got %q", out)
	}
	if strings.HasPrefix(out, "{") {
		t.Fatalf("expected non-JSON output, got %q", out)
	}
}

func TestGetReturnsSameInstanceOnSubsequentCalls(t *testing.T) {
	logger1 := Get(infoLevel)
	logger2 := Get(DebugLevel)
	if logger1 == nil || logger1 != logger2 {
		t.Error("Get should return the same logger instance on subsequent calls")
	}
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	logger := Get(infoLevel)
	ctxWithLogger := WithLogger(ctx, logger)
	if got := FromContext(ctxWithLogger); got != logger {
		t.Error("FromContext should return the logger stored in context")
	}
	if WithLogger(ctxWithLogger, logger) != ctxWithLogger {
		t.Error("WithLogger should return the same context if the logger is already set")
	}

	other := logr.Discard()
	if got := FromContext(WithLogger(ctxWithLogger, &other)); got != &other {
		t.Error("WithLogger should replace a different logger")
	}
}

func TestFromContextFallbacks(t *testing.T) {
	orig := globalLogrLogger
	defer func() { globalLogrLogger = orig }()

	globalLogrLogger = nil
	if got := FromContext(context.Background()); got != &defaultNoopLogger {
		t.Error("FromContext should return the noop logger when nothing is configured")
	}

	mockLogger := logr.Discard()
	globalLogrLogger = &mockLogger
	if got := FromContext(context.Background()); got != &mockLogger {
		t.Error("FromContext should return the global logger if none in context")
	}
	if got := GetGlobalLogger(); got != &mockLogger {
		t.Error("GetGlobalLogger should return the global logger when set")
	}
}

func TestSyncDoesNotPanicWhenGlobalZapLoggerIsNil(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()
	Sync()
}

func TestGetNoopLogger(t *testing.T) {
	got := GetNoopLogger()
	if got != &defaultNoopLogger {
		t.Error("GetNoopLogger should return defaultNoopLogger")
	}
	got.Info("This should do nothing")
}

func TestWithValuesReturnsNewLogger(t *testing.T) {
	logger := Get(infoLevel)
	newLogger := WithValues(logger, RootCommandKey, "kvedit")
	if newLogger == nil || newLogger == logger {
		t.Error("WithValues should return a new logger instance")
	}
}

func TestIsIgnorableSyncError(t *testing.T) {
	if isIgnorableSyncError(context.Canceled) {
		t.Error("unrelated errors must not be ignored")
	}
}
