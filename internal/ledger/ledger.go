// Package ledger is the SQLite-backed store shared by the vat and
// autoline registries. One database file holds both keyspaces so a wipe
// can clear them inside a single transaction.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/lineguard/internal/model"
)

// ErrNotWarded rejects a registry write from a caller the registry has
// not been told to trust.
var ErrNotWarded = errors.New("ledger: caller is not warded")

const schema = `
CREATE TABLE IF NOT EXISTS vat_ilks (
    ilk  TEXT PRIMARY KEY,
    line INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS autoline_ilks (
    ilk      TEXT PRIMARY KEY,
    line     INTEGER NOT NULL,
    gap      INTEGER NOT NULL,
    ttl      INTEGER NOT NULL,
    last_upd INTEGER NOT NULL DEFAULT 0,
    last_inc INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS wards (
    registry TEXT NOT NULL,
    addr     TEXT NOT NULL,
    PRIMARY KEY (registry, addr)
);
`

// Ledger owns the database handle and hands out registry views.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger and applies the schema. The admin
// identity is relied on both registries when their ward sets are empty,
// so a fresh ledger is administrable at all.
func Open(path string, admin model.Address) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger: storage path is required")
	}
	if admin == "" {
		return nil, fmt.Errorf("ledger: admin address is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}

	l := &Ledger{db: db}
	for _, registry := range []string{vatRegistry, autolineRegistry} {
		if err := l.bootstrapWard(registry, admin); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return l, nil
}

// bootstrapWard relies admin on a registry with no wards yet.
func (l *Ledger) bootstrapWard(registry string, admin model.Address) error {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM wards WHERE registry = ?`, registry).Scan(&n); err != nil {
		return fmt.Errorf("ledger: count wards: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := l.db.Exec(`INSERT INTO wards (registry, addr) VALUES (?, ?)`, registry, string(admin)); err != nil {
		return fmt.Errorf("ledger: bootstrap ward: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Vat returns the ceiling registry view.
func (l *Ledger) Vat() *Vat {
	return &Vat{l: l}
}

// AutoLine returns the auto-adjust registry view.
func (l *Ledger) AutoLine() *AutoLine {
	return &AutoLine{l: l}
}

// txKey carries an open transaction through a RunAtomic callback.
type txKey struct{}

// RunAtomic runs fn inside one transaction. Every registry call that
// receives fn's context executes on that transaction; fn returning an
// error rolls all of it back.
func (l *Ledger) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit: %w", err)
	}
	return nil
}

// isNoRows reports whether err is the empty-result sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// dbtx is the common surface of *sql.DB and *sql.Tx the registries use.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or the bare handle.
func (l *Ledger) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return l.db
}

// requireWard fails with ErrNotWarded unless caller is relied on registry.
func (l *Ledger) requireWard(ctx context.Context, registry string, caller model.Address) error {
	var n int
	err := l.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wards WHERE registry = ? AND addr = ?`,
		registry, string(caller)).Scan(&n)
	if err != nil {
		return fmt.Errorf("ledger: check ward: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s on %s", ErrNotWarded, caller, registry)
	}
	return nil
}

// rely grants usr write rights on registry. Ward-gated itself.
func (l *Ledger) rely(ctx context.Context, registry string, caller, usr model.Address) error {
	if err := l.requireWard(ctx, registry, caller); err != nil {
		return err
	}
	if _, err := l.conn(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO wards (registry, addr) VALUES (?, ?)`,
		registry, string(usr)); err != nil {
		return fmt.Errorf("ledger: rely: %w", err)
	}
	return nil
}

// deny removes usr's write rights on registry. Ward-gated itself.
func (l *Ledger) deny(ctx context.Context, registry string, caller, usr model.Address) error {
	if err := l.requireWard(ctx, registry, caller); err != nil {
		return err
	}
	if _, err := l.conn(ctx).ExecContext(ctx,
		`DELETE FROM wards WHERE registry = ? AND addr = ?`,
		registry, string(usr)); err != nil {
		return fmt.Errorf("ledger: deny: %w", err)
	}
	return nil
}
