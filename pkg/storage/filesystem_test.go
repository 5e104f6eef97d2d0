package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveUploadSanitizesName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	stored, url, err := store.SaveUpload("../weird name!.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.Regexp(t, regexp.MustCompile(`^\d+-\d+-weird_name_\.pdf$`), stored)

	data, err := os.ReadFile(filepath.Join(dir, stored))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestOpenAndDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	stored, _, err := store.SaveUpload("report.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	file, err := store.Open(stored)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, store.Delete(stored))
	_, err = store.Open(stored)
	assert.Error(t, err)

	// deleting a missing file is not an error
	assert.NoError(t, store.Delete(stored))
}
