package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/eligibility/pkg/logger"
)

// logEntry represents a parsed log entry for testing
type logEntry struct {
	Level    string  `json:"level"`
	Msg      string  `json:"msg"`
	Method   string  `json:"method"`
	URI      string  `json:"uri"`
	Status   int     `json:"status"`
	Duration float64 `json:"duration"` // slog logs duration as nanoseconds (number)
	BytesOut int     `json:"bytes_out"`
}

func parseLogEntry(t *testing.T, logOutput string) logEntry {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(logOutput), "\n")
	lastLine := lines[len(lines)-1]

	var entry logEntry
	err := json.Unmarshal([]byte(lastLine), &entry)
	require.NoError(t, err, "Should parse log entry as JSON")

	return entry
}

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("it logs successful requests at debug level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		successHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# HELP nothing\n"))
		})

		middleware := logger.NewMiddleware(newJSONLogger(&logBuffer))(successHandler)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()

		// Act
		middleware.ServeHTTP(rec, req)

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "DEBUG", entry.Level)
		assert.Equal(t, "HTTP", entry.Msg)
		assert.Equal(t, http.MethodGet, entry.Method)
		assert.Equal(t, "/metrics", entry.URI)
		assert.Equal(t, http.StatusOK, entry.Status)
		assert.Equal(t, rec.Body.Len(), entry.BytesOut)
	})

	t.Run("it logs client errors at warn level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		middleware := logger.NewMiddleware(newJSONLogger(&logBuffer))(http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		rec := httptest.NewRecorder()

		// Act
		middleware.ServeHTTP(rec, req)

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "WARN", entry.Level)
		assert.Equal(t, http.StatusNotFound, entry.Status)
	})

	t.Run("it logs server errors at error level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		failingHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gather failed", http.StatusInternalServerError)
		})
		middleware := logger.NewMiddleware(newJSONLogger(&logBuffer))(failingHandler)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()

		// Act
		middleware.ServeHTTP(rec, req)

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "ERROR", entry.Level)
		assert.Equal(t, http.StatusInternalServerError, entry.Status)
	})

	t.Run("it captures request duration", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		slowHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(10 * time.Millisecond)
		})
		middleware := logger.NewMiddleware(newJSONLogger(&logBuffer))(slowHandler)

		// Act
		middleware.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.GreaterOrEqual(t, entry.Duration, 10_000_000.0) // 10ms in nanoseconds
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	t.Run("it parses known levels", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
		assert.Equal(t, slog.LevelError, logger.ParseLevel("ERROR"))
	})

	t.Run("it falls back to info on garbage", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, slog.LevelInfo, logger.ParseLevel("loud"))
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("it writes JSON with british timestamps to the configured writer", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.NewFromConfig(logger.Config{LogLevel: "info", Writer: &buf})

		// Act
		log.Info("hello", slog.String("address", "0xabc"))

		// Assert
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "0xabc", entry["address"])
		_, err := time.Parse(logger.BritishTimeFormat, entry["time"].(string))
		assert.NoError(t, err)
	})

	t.Run("it drops records below the configured level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.NewFromConfig(logger.Config{LogLevel: "warn", LogHumanFriendly: true, Writer: &buf})

		// Act
		log.Info("quiet")

		// Assert
		assert.Empty(t, buf.String())
	})
}
