package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn)
	log.Info("quiet")
	log.Warn("persist collection", slog.String("key", "trip_history"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "persist collection", rec["msg"])
	assert.Equal(t, "trip_history", rec["key"])
}

func TestOpenCreatesDirAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tripguide.log")
	for i := 0; i < 2; i++ {
		log, closer, err := Open(path, slog.LevelInfo)
		require.NoError(t, err)
		log.Info("started")
		require.NoError(t, closer.Close())
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte(`"msg":"started"`)))
}
