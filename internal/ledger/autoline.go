package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/lineguard/internal/model"
)

const autolineRegistry = "autoline"

// Record is one ilk's auto-adjust configuration.
type Record struct {
	Line    uint64 `json:"line"`
	Gap     uint64 `json:"gap"`
	TTL     uint64 `json:"ttl"`
	LastUpd int64  `json:"last_upd"`
	LastInc int64  `json:"last_inc"`
}

// AutoLine is the auto-adjust registry: automated ceiling growth
// parameters per ilk. Writes are ward-gated like the vat's.
type AutoLine struct {
	l *Ledger
}

// SetIlk creates or replaces an ilk's auto-adjust record. last_upd is
// stamped with the current time; last_inc is preserved on replace.
func (a *AutoLine) SetIlk(ctx context.Context, caller model.Address, ilk model.Ilk, line, gap, ttl uint64) error {
	if err := a.l.requireWard(ctx, autolineRegistry, caller); err != nil {
		return err
	}
	now := time.Now().UTC().Unix()
	_, err := a.l.conn(ctx).ExecContext(ctx,
		`INSERT INTO autoline_ilks (ilk, line, gap, ttl, last_upd, last_inc)
		 VALUES (?, ?, ?, ?, ?, 0)
		 ON CONFLICT(ilk) DO UPDATE SET
		     line = excluded.line,
		     gap = excluded.gap,
		     ttl = excluded.ttl,
		     last_upd = excluded.last_upd`,
		ilk.String(), int64(line), int64(gap), int64(ttl), now)
	if err != nil {
		return fmt.Errorf("autoline: set ilk: %w", err)
	}
	return nil
}

// RemIlk deletes an ilk's record entirely. The whole row goes at once:
// there is no state in which line is zeroed but ttl survives. Removing
// an absent ilk is a no-op.
func (a *AutoLine) RemIlk(ctx context.Context, caller model.Address, ilk model.Ilk) error {
	if err := a.l.requireWard(ctx, autolineRegistry, caller); err != nil {
		return err
	}
	if _, err := a.l.conn(ctx).ExecContext(ctx,
		`DELETE FROM autoline_ilks WHERE ilk = ?`, ilk.String()); err != nil {
		return fmt.Errorf("autoline: rem ilk: %w", err)
	}
	return nil
}

// Get reads an ilk's record. The second return reports presence.
func (a *AutoLine) Get(ctx context.Context, ilk model.Ilk) (Record, bool, error) {
	var (
		rec              Record
		line, gap, ttl   int64
		lastUpd, lastInc int64
	)
	err := a.l.conn(ctx).QueryRowContext(ctx,
		`SELECT line, gap, ttl, last_upd, last_inc FROM autoline_ilks WHERE ilk = ?`,
		ilk.String()).Scan(&line, &gap, &ttl, &lastUpd, &lastInc)
	if err != nil {
		if isNoRows(err) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("autoline: read: %w", err)
	}
	rec = Record{
		Line:    uint64(line),
		Gap:     uint64(gap),
		TTL:     uint64(ttl),
		LastUpd: lastUpd,
		LastInc: lastInc,
	}
	return rec, true, nil
}

// RecordEntry is one listed row with its ilk name.
type RecordEntry struct {
	Ilk string `json:"ilk"`
	Record
}

// List returns every autoline row ordered by ilk name.
func (a *AutoLine) List(ctx context.Context) ([]RecordEntry, error) {
	rows, err := a.l.conn(ctx).QueryContext(ctx,
		`SELECT ilk, line, gap, ttl, last_upd, last_inc FROM autoline_ilks ORDER BY ilk`)
	if err != nil {
		return nil, fmt.Errorf("autoline: list: %w", err)
	}
	defer rows.Close()

	var out []RecordEntry
	for rows.Next() {
		var (
			ilk                              string
			line, gap, ttl, lastUpd, lastInc int64
		)
		if err := rows.Scan(&ilk, &line, &gap, &ttl, &lastUpd, &lastInc); err != nil {
			return nil, fmt.Errorf("autoline: scan: %w", err)
		}
		out = append(out, RecordEntry{
			Ilk: ilk,
			Record: Record{
				Line:    uint64(line),
				Gap:     uint64(gap),
				TTL:     uint64(ttl),
				LastUpd: lastUpd,
				LastInc: lastInc,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("autoline: rows: %w", err)
	}
	return out, nil
}

// Rely grants usr write rights on the autoline registry.
func (a *AutoLine) Rely(ctx context.Context, caller, usr model.Address) error {
	return a.l.rely(ctx, autolineRegistry, caller, usr)
}

// Deny removes usr's write rights on the autoline registry.
func (a *AutoLine) Deny(ctx context.Context, caller, usr model.Address) error {
	return a.l.deny(ctx, autolineRegistry, caller, usr)
}
