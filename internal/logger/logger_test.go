package logger

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	t.Cleanup(func() {
		SetLevel(LevelOff)
		SetOutput(io.Discard)
	})
	return &buf
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		threshold Level
		want      string
	}{
		{"debug", LevelDebug, "[DEBUG] d 1\n[INFO] i 2\n[WARN] w 3\n"},
		{"info", LevelInfo, "[INFO] i 2\n[WARN] w 3\n"},
		{"warn", LevelWarn, "[WARN] w 3\n"},
		{"off", LevelOff, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.threshold)

			Debug("d %d", 1)
			Info("i %d", 2)
			Warn("w %d", 3)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSetVerbose(t *testing.T) {
	capture(t, LevelOff)

	SetVerbose(true)
	assert.True(t, Enabled(LevelDebug))

	SetVerbose(false)
	assert.False(t, Enabled(LevelWarn))
	assert.False(t, Enabled(LevelOff))
}

func TestSection(t *testing.T) {
	buf := capture(t, LevelInfo)
	Section("Session")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Section("Session")
	assert.Equal(t, "-- Session --\n", buf.String())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "OFF", Level(42).String())
}

func TestConcurrentUse(t *testing.T) {
	capture(t, LevelDebug)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			Debug("worker %d", i)
		}()
	}
	wg.Wait()
}

func TestRedactToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "<none>"},
		{"  ", "<none>"},
		{"short", "****"},
		{"eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactToken(tt.token), tt.token)
	}
}
