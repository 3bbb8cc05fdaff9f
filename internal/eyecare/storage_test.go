package eyecare

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkivikoski/eyeguard/pkg/config"
)

func TestFileStoreMissingFileReturnsDefaults(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"), testLogger())
	defaults := DefaultSettings(config.NewConfig())

	loaded, err := store.Load(context.Background(), defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, loaded)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewFileStore(path, testLogger())
	ctx := context.Background()

	saved := DefaultSettings(config.NewConfig())
	saved.TemperatureK = 3400
	saved.BrightnessPct = 75
	saved.ReminderEnabled = false
	saved.MinimizeToTray = false

	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx, DefaultSettings(config.NewConfig()))
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestFileStoreMalformedDocumentReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path, testLogger())
	defaults := DefaultSettings(config.NewConfig())

	loaded, err := store.Load(context.Background(), defaults)
	require.NoError(t, err, "malformed document must not be fatal")
	assert.Equal(t, defaults, loaded)
}

func TestFileStorePartialDocumentMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"temperature": 3500}`), 0o644))

	store := NewFileStore(path, testLogger())
	defaults := DefaultSettings(config.NewConfig())

	loaded, err := store.Load(context.Background(), defaults)
	require.NoError(t, err)

	assert.Equal(t, 3500, loaded.TemperatureK)
	// Everything the document doesn't mention keeps its default
	assert.Equal(t, defaults.BrightnessPct, loaded.BrightnessPct)
	assert.Equal(t, defaults.Enabled, loaded.Enabled)
	assert.Equal(t, defaults.ReminderEnabled, loaded.ReminderEnabled)
	assert.Equal(t, defaults.Policy, loaded.Policy)
}

func TestFileStoreIgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{"temperature": 2700, "some_future_key": true}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store := NewFileStore(path, testLogger())
	loaded, err := store.Load(context.Background(), DefaultSettings(config.NewConfig()))
	require.NoError(t, err)
	assert.Equal(t, 2700, loaded.TemperatureK)
}

func TestFileStoreBadPolicyLabelKeepsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{"compensation": "bogus", "strength": 50}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store := NewFileStore(path, testLogger())
	defaults := DefaultSettings(config.NewConfig())

	loaded, err := store.Load(context.Background(), defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults.Policy, loaded.Policy)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	defaults := DefaultSettings(config.NewConfig())

	loaded, err := store.Load(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, loaded)

	saved := defaults
	saved.TemperatureK = 2700
	require.NoError(t, store.Save(ctx, saved))

	loaded, err = store.Load(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 2700, loaded.TemperatureK)
}
