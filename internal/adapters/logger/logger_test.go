package logger_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/smake/internal/adapters/logger"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Logger = (*logger.Logger)(nil)

// captureStderr captures output written to os.Stderr during the execution of fn.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	originalStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	defer func() { os.Stderr = originalStderr }()

	done := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- string(buf)
	}()

	fn()

	require.NoError(t, w.Close())
	output := <-done
	require.NoError(t, r.Close())
	return output
}

func TestLogger_New_WritesToStderr(t *testing.T) {
	output := captureStderr(t, func() {
		lg := logger.New()
		lg.Info("some message")
	})

	assert.Contains(t, output, "some message")
	assert.Contains(t, output, "INFO")
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf, slog.LevelWarn)

	lg.Info("hidden")
	lg.Warn("careful")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "careful")
}

func TestLogger_LevelFromEnvironment(t *testing.T) {
	t.Setenv("SMAKE_LOG_LEVEL", "error")
	output := captureStderr(t, func() {
		lg := logger.New()
		lg.Warn("suppressed")
		lg.Error(zerr.New("shown"))
	})

	assert.NotContains(t, output, "suppressed")
	assert.Contains(t, output, "shown")
}

func TestLogger_ErrorIncludesMetadata(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf, slog.LevelInfo)

	err := zerr.With(zerr.Wrap(zerr.New("recipe failed"), "build"), "target", "app")
	lg.Error(err)
	lg.Error(nil)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `msg="build: recipe failed"`)
	assert.Contains(t, out, "target=app")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestLogger_SetOutput(t *testing.T) {
	var first, second bytes.Buffer
	lg := logger.NewWithWriter(&first, slog.LevelInfo)

	lg.Info("one")
	lg.SetOutput(&second)
	lg.Info("two")

	assert.Contains(t, first.String(), "one")
	assert.NotContains(t, first.String(), "two")
	assert.Contains(t, second.String(), "two")
}
