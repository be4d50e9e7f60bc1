package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManagerAt(t.TempDir(), nil)
	require.NoError(t, err)
	return mgr
}

func TestStateRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	state := NewState("timeline:nasa", "posts")
	state.OwnerID = "528817151"
	state.Cursor = "QVFEoken"
	state.Page = 3
	state.SeenKeys = []string{"post:abc", "post:def"}
	state.Items = 2

	require.NoError(t, mgr.Save(state))

	loaded, err := mgr.Load("timeline:nasa")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "timeline:nasa", loaded.Target)
	assert.Equal(t, "posts", loaded.ScrapeType)
	assert.Equal(t, "528817151", loaded.OwnerID)
	assert.Equal(t, "QVFEoken", loaded.Cursor)
	assert.Equal(t, 3, loaded.Page)
	assert.Equal(t, []string{"post:abc", "post:def"}, loaded.SeenKeys)
	assert.Equal(t, 2, loaded.Items)
	assert.Equal(t, stateVersion, loaded.Version)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestLoadMissingStateIsNil(t *testing.T) {
	mgr := newTestManager(t)

	state, err := mgr.Load("profile:ghost")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	mgr := newTestManager(t)

	state := NewState("hashtag:sunset", "hashtag")
	state.Cursor = "first"
	require.NoError(t, mgr.Save(state))

	state.Cursor = "second"
	state.Page = 1
	require.NoError(t, mgr.Save(state))

	loaded, err := mgr.Load("hashtag:sunset")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "second", loaded.Cursor)
	assert.Equal(t, 1, loaded.Page)
}

func TestDeleteAndExists(t *testing.T) {
	mgr := newTestManager(t)

	state := NewState("profile:nasa", "profile")
	require.NoError(t, mgr.Save(state))
	assert.True(t, mgr.Exists("profile:nasa"))

	require.NoError(t, mgr.Delete("profile:nasa"))
	assert.False(t, mgr.Exists("profile:nasa"))

	// Deleting a missing state is not an error.
	require.NoError(t, mgr.Delete("profile:nasa"))
}

func TestPathFlattensTargetReference(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerAt(dir, nil)
	require.NoError(t, err)

	state := NewState("timeline:some.user_name", "posts")
	require.NoError(t, mgr.Save(state))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "timeline_some.user_name.checkpoint.json", entries[0].Name())
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerAt(dir, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Save(NewState("profile:nasa", "profile")))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
