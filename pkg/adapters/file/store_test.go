package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/telelab/pkg/adapters/file"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	tests.SessionStoreContractTest(t, file.New(t.TempDir(), "contract"))
}

func TestFileStore_SurvivesReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := file.New(dir, "student")
	require.NoError(t, first.Set(ctx, domain.KeyModule, "2"))

	// A fresh store over the same directory sees the value, like a page reload.
	second := file.New(dir, "student")
	val, err := second.Get(ctx, domain.KeyModule)
	require.NoError(t, err)
	assert.Equal(t, "2", val)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "student.json", entries[0].Name())
}

func TestFileStore_Profiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, file.New(dir, "a").Set(ctx, "k", "v"))
	require.NoError(t, file.New(dir, "b").Set(ctx, "k", "v"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	profiles, err := file.Profiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, profiles)

	profiles, err = file.Profiles(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0600))

	_, err := file.New(dir, "bad").Get(context.Background(), domain.KeyCredentials)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
