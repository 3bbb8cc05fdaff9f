package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkivikoski/eyeguard/pkg/postgres"
)

// Recorder appends usage events for long-term eye-strain statistics:
// when reminders fired and how the ramp settings changed over time.
// Recording is strictly best-effort; the caller logs failures and moves
// on.
type Recorder interface {
	RecordReminder(ctx context.Context, id string, firedAt time.Time) error
	RecordRampChange(ctx context.Context, temperatureK, brightnessPct int, policy string, enabled bool) error
	Close() error
}

// NewNoop returns a recorder that drops everything, used when no
// history database is configured or the configured one is unreachable.
func NewNoop() Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) RecordReminder(context.Context, string, time.Time) error { return nil }
func (noopRecorder) RecordRampChange(context.Context, int, int, string, bool) error {
	return nil
}
func (noopRecorder) Close() error { return nil }

// Storage records usage events in Postgres.
type Storage struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewStorage creates a Postgres-backed recorder. Init must be called
// before recording.
func NewStorage(pg postgres.Client, logger *slog.Logger) *Storage {
	return &Storage{pg: pg, logger: logger}
}

// Init creates the event tables if they do not exist.
func (s *Storage) Init(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS eyecare_reminders (
			id TEXT PRIMARY KEY,
			fired_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS eyecare_ramp_changes (
			id BIGSERIAL PRIMARY KEY,
			temperature_k INTEGER NOT NULL,
			brightness_pct INTEGER NOT NULL,
			policy TEXT NOT NULL,
			enabled BOOLEAN NOT NULL,
			changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.pg.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create history schema: %w", err)
		}
	}

	s.logger.Info("Usage history schema ready")
	return nil
}

// RecordReminder stores one fired reminder.
func (s *Storage) RecordReminder(ctx context.Context, id string, firedAt time.Time) error {
	_, err := s.pg.Exec(ctx,
		`INSERT INTO eyecare_reminders (id, fired_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, firedAt)
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	return nil
}

// RecordRampChange stores one settings mutation that affected the ramp.
func (s *Storage) RecordRampChange(ctx context.Context, temperatureK, brightnessPct int, policy string, enabled bool) error {
	_, err := s.pg.Exec(ctx,
		`INSERT INTO eyecare_ramp_changes (temperature_k, brightness_pct, policy, enabled) VALUES ($1, $2, $3, $4)`,
		temperatureK, brightnessPct, policy, enabled)
	if err != nil {
		return fmt.Errorf("failed to record ramp change: %w", err)
	}
	return nil
}

// Close disconnects from the history database.
func (s *Storage) Close() error {
	return s.pg.Disconnect()
}
