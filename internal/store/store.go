package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
	_ "modernc.org/sqlite"
)

type Store struct {
	writer *sql.DB
	reader *sql.DB
	bus    *live.Bus
	log    *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

type Option func(*Store)

// WithBus sets the bus mutations are published on. Without it the store
// creates its own.
func WithBus(b *live.Bus) Option {
	return func(s *Store) { s.bus = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithLocation sets the zone times are returned in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithClock overrides time.Now for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func Open(dbPath string, opts ...Option) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	if err := migrateUp(dsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	s := &Store{
		writer: writer,
		reader: reader,
		log:    slog.Default(),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = live.NewBus()
	}
	return s, nil
}

func (s *Store) Close() error {
	err1 := s.writer.Close()
	err2 := s.reader.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Bus returns the bus committed mutations are published on.
func (s *Store) Bus() *live.Bus {
	return s.bus
}

// Ping checks the reader pool.
func (s *Store) Ping(ctx context.Context) error {
	return ledger.WrapStorage("ping", s.reader.PingContext(ctx))
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside one writer transaction. Nothing fn wrote is visible
// unless it returns nil and the commit succeeds; on success the changed
// collections are published.
func (s *Store) inTx(ctx context.Context, op string, changed []live.Collection, fn func(tx *sql.Tx) error) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return ledger.WrapStorage(op+": begin", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return ledger.WrapStorage(op, err)
	}
	if err := tx.Commit(); err != nil {
		return ledger.WrapStorage(op+": commit", err)
	}
	s.bus.Publish(changed...)
	return nil
}

func (s *Store) stamp() time.Time {
	return s.now().Truncate(time.Millisecond).In(s.loc)
}

func (s *Store) fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(s.loc)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
