package backup

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldInclude(t *testing.T) {
	assert.True(t, shouldInclude("receipts.json", false))
	assert.True(t, shouldInclude("logs", true))
	assert.True(t, shouldInclude(filepath.Join("logs", "kipu-atm_2024.log"), false))

	assert.False(t, shouldInclude("receipts.json.tmp", false))
	assert.False(t, shouldInclude("backups", true))
	assert.False(t, shouldInclude(filepath.Join("logs", "notes.txt"), false))
	assert.False(t, shouldInclude("key.json", false))
}

func TestCreateBackup(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "receipts.json"), []byte("[]"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "logs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "logs", "kipu-atm_1.log"), []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "wallet.json"), []byte("secret"), 0600))

	archive, err := CreateBackup(dataDir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "backups"), filepath.Dir(archive))

	reader, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"logs/", "logs/kipu-atm_1.log", "receipts.json"}, names)
}

func TestCreateBackupMissingDataDir(t *testing.T) {
	_, err := CreateBackup(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)
}
