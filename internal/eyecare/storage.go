package eyecare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mkivikoski/eyeguard/pkg/redis"
)

// Store persists the settings document. Load merges the stored keys
// over the given defaults; a missing or malformed document yields the
// defaults unchanged. Implementations never make store trouble fatal:
// the daemon keeps running on in-memory settings.
type Store interface {
	Load(ctx context.Context, defaults Settings) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// fileStore keeps the document in a JSON file, the default backend.
type fileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a file-backed settings store.
func NewFileStore(path string, logger *slog.Logger) Store {
	return &fileStore{path: path, logger: logger}
}

func (f *fileStore) Load(ctx context.Context, defaults Settings) (Settings, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("failed to read settings file %s: %w", f.path, err)
	}

	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt document is treated as absent, not fatal
		f.logger.Warn("Settings file is malformed, using defaults", "path", f.path, "error", err)
		return defaults, nil
	}

	return mergeDoc(defaults, doc), nil
}

func (f *fileStore) Save(ctx context.Context, settings Settings) error {
	data, err := json.MarshalIndent(toDoc(settings), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", f.path, err)
	}
	return nil
}

// redisStore keeps the same JSON document under a single key so file
// and redis deployments stay interchangeable.
type redisStore struct {
	client redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a Redis-backed settings store.
func NewRedisStore(client redis.Client, logger *slog.Logger) Store {
	return &redisStore{client: client, logger: logger}
}

func (r *redisStore) Load(ctx context.Context, defaults Settings) (Settings, error) {
	raw, err := r.client.Get(ctx, redis.SettingsKey())
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("failed to load settings from redis: %w", err)
	}

	var doc settingsDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		r.logger.Warn("Stored settings document is malformed, using defaults", "error", err)
		return defaults, nil
	}

	return mergeDoc(defaults, doc), nil
}

func (r *redisStore) Save(ctx context.Context, settings Settings) error {
	data, err := json.Marshal(toDoc(settings))
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := r.client.Set(ctx, redis.SettingsKey(), data, 0); err != nil {
		return fmt.Errorf("failed to save settings to redis: %w", err)
	}
	return nil
}

// memoryStore is the fallback when no backend is usable, and the test
// double. Load returns whatever was last saved, or the defaults.
type memoryStore struct {
	mu    sync.Mutex
	doc   *settingsDoc
	saves int
}

// NewMemoryStore creates an in-memory settings store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Load(ctx context.Context, defaults Settings) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.doc == nil {
		return defaults, nil
	}
	return mergeDoc(defaults, *m.doc), nil
}

func (m *memoryStore) Save(ctx context.Context, settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := toDoc(settings)
	m.doc = &doc
	m.saves++
	return nil
}
