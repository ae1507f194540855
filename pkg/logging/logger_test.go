package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "default", want: DefaultLevel},
		{name: "env", env: "debug", want: "debug"},
		{name: "flag beats env", flag: "trace", env: "debug", want: "trace"},
		{name: "case and space", flag: "  INFO ", want: "info"},
		{name: "bad flag falls to env", flag: "chatty", env: "error", want: "error"},
		{name: "bad env falls to default", env: "loud", want: DefaultLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, tc.env)
			assert.Equal(t, tc.want, ResolveLevel(tc.flag))
		})
	}
}

func TestNewLoggerPrefixesLines(t *testing.T) {
	t.Setenv(EnvJSONLog, "")

	var buf bytes.Buffer
	logger := NewLogger("gifweave.test", "info", &buf)
	logger.Debug("hidden")
	logger.Info("🎬 Rendering", "frames", 3)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, linePrefix), out)
	assert.Contains(t, out, "gifweave.test")
	assert.Contains(t, out, "frames=3")
	assert.NotContains(t, out, "hidden")
}

func TestNewLoggerJSON(t *testing.T) {
	t.Setenv(EnvJSONLog, "1")

	var buf bytes.Buffer
	NewLogger("gifweave.test", "info", &buf).Info("done", "frames", 2)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"frames":2`)
}

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPrefixWriter("> ", &buf)

	n, err := pw.Write([]byte("one\ntw"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "> one\n", buf.String())

	_, err = pw.Write([]byte("o\nthree"))
	require.NoError(t, err)
	assert.Equal(t, "> one\n> two\n", buf.String())

	require.NoError(t, pw.Flush())
	assert.Equal(t, "> one\n> two\n> three", buf.String())
	require.NoError(t, pw.Flush())
	assert.Equal(t, "> one\n> two\n> three", buf.String())
}

func TestPrefixWriterConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPrefixWriter("# ", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = pw.Write([]byte("frame done\n"))
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 400)
	for _, l := range lines {
		assert.Equal(t, "# frame done", l)
	}
}
