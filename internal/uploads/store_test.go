package uploads

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreRequiresDir(t *testing.T) {
	_, err := NewStore("  ")
	require.Error(t, err)
}

func TestSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	resolved, err := store.Save("report.pdf", strings.NewReader("contenuto"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", resolved)

	f, err := store.Open(resolved)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "contenuto", string(data))
}

func TestSaveSanitizesName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	resolved, err := store.Save("../../etc/cron d.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "cron_d.txt", resolved)

	resolved, err = store.Save("  foto vacanze.jpg ", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "foto_vacanze.jpg", resolved)
}

func TestSaveNeverOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save("doc.txt", strings.NewReader("uno"))
	require.NoError(t, err)
	second, err := store.Save("doc.txt", strings.NewReader("due"))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "doc-"))
	assert.True(t, strings.HasSuffix(second, ".txt"))

	f, err := store.Open(first)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	_ = f.Close()
	require.NoError(t, err)
	assert.Equal(t, "uno", string(data))
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../secret.txt")
	require.Error(t, err)
	_, err = store.Open("nested/secret.txt")
	require.Error(t, err)
}
