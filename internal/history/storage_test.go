package history

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type execCall struct {
	query string
	args  []interface{}
}

// fakePG records Exec calls so tests can assert on the statements
// without a database.
type fakePG struct {
	execs       []execCall
	execErr     error
	disconnects int
	connected   bool
}

func (f *fakePG) Connect(ctx context.Context) error { f.connected = true; return nil }

func (f *fakePG) Disconnect() error {
	f.disconnects++
	f.connected = false
	return nil
}

func (f *fakePG) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.execs = append(f.execs, execCall{query: query, args: args})
	return nil, nil
}

func (f *fakePG) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (f *fakePG) IsConnected() bool { return f.connected }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitCreatesBothEventTables(t *testing.T) {
	pg := &fakePG{}
	s := NewStorage(pg, testLogger())

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if len(pg.execs) != 2 {
		t.Fatalf("expected 2 schema statements, got %d", len(pg.execs))
	}
	if !strings.Contains(pg.execs[0].query, "eyecare_reminders") {
		t.Errorf("first statement should create eyecare_reminders: %s", pg.execs[0].query)
	}
	if !strings.Contains(pg.execs[1].query, "eyecare_ramp_changes") {
		t.Errorf("second statement should create eyecare_ramp_changes: %s", pg.execs[1].query)
	}
}

func TestInitPropagatesSchemaError(t *testing.T) {
	pg := &fakePG{execErr: errors.New("connection refused")}
	s := NewStorage(pg, testLogger())

	if err := s.Init(context.Background()); err == nil {
		t.Error("expected Init to surface the schema error")
	}
}

func TestRecordReminderInsertsIDAndTimestamp(t *testing.T) {
	pg := &fakePG{}
	s := NewStorage(pg, testLogger())

	fired := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	if err := s.RecordReminder(context.Background(), "reminder-1", fired); err != nil {
		t.Fatalf("RecordReminder: %v", err)
	}

	if len(pg.execs) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(pg.execs))
	}
	call := pg.execs[0]
	if !strings.Contains(call.query, "INSERT INTO eyecare_reminders") {
		t.Errorf("unexpected statement: %s", call.query)
	}
	// Re-delivered events must not error, hence the conflict clause
	if !strings.Contains(call.query, "ON CONFLICT (id) DO NOTHING") {
		t.Errorf("expected idempotent insert: %s", call.query)
	}
	if len(call.args) != 2 || call.args[0] != "reminder-1" || call.args[1] != fired {
		t.Errorf("unexpected insert args: %v", call.args)
	}
}

func TestRecordRampChangeInsertsSettings(t *testing.T) {
	pg := &fakePG{}
	s := NewStorage(pg, testLogger())

	if err := s.RecordRampChange(context.Background(), 3400, 80, "strength_blend", true); err != nil {
		t.Fatalf("RecordRampChange: %v", err)
	}

	call := pg.execs[0]
	if !strings.Contains(call.query, "INSERT INTO eyecare_ramp_changes") {
		t.Errorf("unexpected statement: %s", call.query)
	}
	want := []interface{}{3400, 80, "strength_blend", true}
	if len(call.args) != len(want) {
		t.Fatalf("expected %d args, got %d", len(want), len(call.args))
	}
	for i, arg := range want {
		if call.args[i] != arg {
			t.Errorf("arg %d: got %v, want %v", i, call.args[i], arg)
		}
	}
}

func TestRecordErrorsWrapped(t *testing.T) {
	pg := &fakePG{execErr: errors.New("deadlock")}
	s := NewStorage(pg, testLogger())

	if err := s.RecordReminder(context.Background(), "x", time.Now()); err == nil {
		t.Error("expected RecordReminder to surface the exec error")
	}
	if err := s.RecordRampChange(context.Background(), 5000, 90, "none", false); err == nil {
		t.Error("expected RecordRampChange to surface the exec error")
	}
}

func TestCloseDisconnects(t *testing.T) {
	pg := &fakePG{connected: true}
	s := NewStorage(pg, testLogger())

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if pg.disconnects != 1 {
		t.Errorf("expected 1 disconnect, got %d", pg.disconnects)
	}
}
