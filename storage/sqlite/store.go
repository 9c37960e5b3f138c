// Package sqlite provides the SQLite backed card ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/futballcards/futballcards-go/cards"
	fccbor "github.com/futballcards/futballcards-go/cbor"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/storage"
	"github.com/futballcards/futballcards-go/storage/sqlite/migrations"
	"github.com/futballcards/futballcards-go/types"
)

const (
	metaKey = "ledger"
	// metaTag marks the meta blob, version changes of the Meta layout get a new tag
	metaTag fccbor.Tag = 0x46550001
)

// Store persists ledger state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context) (*storage.Snapshot, error) {
	var metaData []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaKey).Scan(&metaData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	snap := &storage.Snapshot{Credits: map[types.Identity]uint64{}}
	if err := fccbor.UnmarshalTaggedValue(metaTag, metaData, &snap.Meta); err != nil {
		return nil, fmt.Errorf("decoding meta: %w", err)
	}

	if snap.Cards, err = s.loadCards(ctx); err != nil {
		return nil, err
	}
	if err := s.loadCredits(ctx, snap.Credits); err != nil {
		return nil, err
	}

	var lastSeq int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&lastSeq); err != nil {
		return nil, fmt.Errorf("read last event sequence: %w", err)
	}
	snap.LastSeq = uint64(lastSeq)
	return snap, nil
}

func (s *Store) loadCards(ctx context.Context) ([]*cards.Card, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT token_id, data FROM cards ORDER BY token_id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var out []*cards.Card
	for rows.Next() {
		var (
			id   int64
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c := &cards.Card{}
		if err := fccbor.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("decoding card %d: %w", id, err)
		}
		if uint64(c.ID) != uint64(id) {
			return nil, fmt.Errorf("card row %d holds record of token %d", id, c.ID)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}

func (s *Store) loadCredits(ctx context.Context, credits map[types.Identity]uint64) error {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT address, remaining FROM credits`)
	if err != nil {
		return fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			addr      string
			remaining int64
		)
		if err := rows.Scan(&addr, &remaining); err != nil {
			return fmt.Errorf("scan credit: %w", err)
		}
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid credit holder address %q", addr)
		}
		credits[types.HexToIdentity(addr)] = uint64(remaining)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate credits: %w", err)
	}
	return nil
}

// Commit writes the change set in a single transaction.
func (s *Store) Commit(ctx context.Context, c *storage.Commit) (rErr error) {
	metaData, err := fccbor.MarshalTaggedValue(metaTag, c.Meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit transaction: %w", err)
	}
	defer func() {
		if rErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaKey, metaData,
	); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	for _, card := range c.Cards {
		data, err := fccbor.Marshal(card)
		if err != nil {
			return fmt.Errorf("encoding card %d: %w", card.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cards (token_id, owner, burned, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(token_id) DO UPDATE SET owner = excluded.owner, burned = excluded.burned, data = excluded.data`,
			int64(card.ID), card.Owner.Hex(), card.Burned, data,
		); err != nil {
			return fmt.Errorf("write card %d: %w", card.ID, err)
		}
	}

	for addr, remaining := range c.Credits {
		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM credits WHERE address = ?`, addr.Hex()); err != nil {
				return fmt.Errorf("delete credit of %s: %w", addr, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credits (address, remaining) VALUES (?, ?)
			 ON CONFLICT(address) DO UPDATE SET remaining = excluded.remaining`,
			addr.Hex(), int64(remaining),
		); err != nil {
			return fmt.Errorf("write credit of %s: %w", addr, err)
		}
	}

	for _, rec := range c.Events {
		data, err := events.Encode(rec.Event)
		if err != nil {
			return fmt.Errorf("encoding event %d: %w", rec.Seq, err)
		}
		var tokenID sql.NullInt64
		if te, ok := rec.Event.(events.TokenEvent); ok {
			tokenID = sql.NullInt64{Int64: int64(te.Token()), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (seq, name, topic, token_id, data) VALUES (?, ?, ?, ?, ?)`,
			int64(rec.Seq), events.Name(rec.Event), rec.Topic.Bytes(), tokenID, data,
		); err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("event %d already committed: %w", rec.Seq, err)
			}
			return fmt.Errorf("write event %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Events(ctx context.Context, afterSeq uint64, limit int) ([]events.Record, error) {
	query := `SELECT seq, topic, data FROM events WHERE seq > ? ORDER BY seq`
	args := []any{int64(afterSeq)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []events.Record
	for rows.Next() {
		var (
			seq   int64
			topic []byte
			data  []byte
		)
		if err := rows.Scan(&seq, &topic, &data); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := events.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", seq, err)
		}
		out = append(out, events.Record{Seq: uint64(seq), Topic: common.BytesToHash(topic), Event: ev})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
