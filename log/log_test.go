package log

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const tsRegex = `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{0,9}Z`

func TestLogfmtLine(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("decoder", &b, FmtLogfmt, LevelDebug)
	require.NoError(t, err)

	l.Debug("decoded event")
	require.Regexp(t, regexp.MustCompile(
		`level=debug ts=`+tsRegex+` caller=log_test\.go:\d{1,4} module=decoder msg="decoded event"`),
		b.String())
}

func TestJSONLine(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("decoder", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.Info("decoded event")
	require.Regexp(t, regexp.MustCompile(
		`{"caller":"log_test\.go:\d{1,4}","level":"info","module":"decoder","msg":"decoded event","ts":"`+tsRegex+`"}\n`),
		b.String())
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewLogger("decoder", &bytes.Buffer{}, Format(255), LevelDebug)
	require.Error(t, err)
}

func TestWithContext(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("decoder", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.With("kind", "LBP.PoolUpdated").WithModule("resolver").Warn("unknown fingerprint")
	out := b.String()
	require.Contains(t, out, `"kind":"LBP.PoolUpdated"`)
	require.Contains(t, out, `"module":"resolver"`)
	require.Contains(t, out, `"level":"warn"`)
}

func TestLevelFiltering(t *testing.T) {
	for _, tc := range []struct {
		min     Level
		emitted []string
	}{
		{LevelDebug, []string{"debug", "info", "warn", "error"}},
		{LevelInfo, []string{"info", "warn", "error"}},
		{LevelWarn, []string{"warn", "error"}},
		{LevelError, []string{"error"}},
	} {
		var b bytes.Buffer
		l, err := NewLogger("decoder", &b, FmtLogfmt, tc.min)
		require.NoError(t, err)
		l.Debug("m")
		l.Info("m")
		l.Warn("m")
		l.Error("m")

		lines := strings.Split(strings.TrimSpace(b.String()), "\n")
		require.Len(t, lines, len(tc.emitted), tc.min.String())
		for i, lvl := range tc.emitted {
			require.True(t, strings.HasPrefix(lines[i], "level="+lvl), lines[i])
		}
	}
}

func TestDiscard(t *testing.T) {
	l := NewDiscardLogger()
	l.Error("dropped")
	l.With("a", 1).Info("dropped")
}

func TestLevelFlag(t *testing.T) {
	var lvl Level
	ls := lvl.Type()
	for _, name := range strings.Split(ls[1:len(ls)-1], ",") {
		require.NoError(t, lvl.Set(strings.ToLower(name)))
		require.Equal(t, name, lvl.String())
	}
	require.Error(t, lvl.Set("trace"))

	lvl = Level(255)
	require.Panics(t, func() { _ = lvl.String() })
}

func TestFormatFlag(t *testing.T) {
	var f Format
	fs := f.Type()
	for _, name := range strings.Split(fs[1:len(fs)-1], ",") {
		require.NoError(t, f.Set(name))
		require.Equal(t, name, f.String())
	}
	require.Error(t, f.Set("xml"))
}

func TestWriterIntoLogger(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("decoder", &b, FmtLogfmt, LevelInfo)
	require.NoError(t, err)

	w := WriterIntoLogger(l.WithModule("pogreb"))
	n, err := w.Write([]byte("compacting segment 3\n"))
	require.NoError(t, err)
	require.Equal(t, 21, n)
	require.Contains(t, b.String(), `module=pogreb msg="compacting segment 3"`)
}
