package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindful/internal/log"
)

func TestInitSQLite_LogsSchemaVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	repo := InitSQLite(logger, filepath.Join(t.TempDir(), "mindful.db"))
	t.Cleanup(func() { _ = repo.Close() })

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "SQLite repository ready", entry["msg"])
	assert.EqualValues(t, 1, entry["schema_version"])
	assert.Equal(t, false, entry["dirty"])
}
