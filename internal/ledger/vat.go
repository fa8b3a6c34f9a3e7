package ledger

import (
	"context"
	"fmt"

	"github.com/ppiankov/lineguard/internal/model"
)

const vatRegistry = "vat"

// Vat is the primary ceiling registry: one debt ceiling per ilk. Writes
// are gated by the vat's own ward set; the guardian must be relied here
// before it can wipe anything.
type Vat struct {
	l *Ledger
}

// Init creates an ilk's record with a zero ceiling. Existing records
// are left alone.
func (v *Vat) Init(ctx context.Context, caller model.Address, ilk model.Ilk) error {
	if err := v.l.requireWard(ctx, vatRegistry, caller); err != nil {
		return err
	}
	_, err := v.l.conn(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO vat_ilks (ilk, line) VALUES (?, 0)`, ilk.String())
	if err != nil {
		return fmt.Errorf("vat: init: %w", err)
	}
	return nil
}

// File sets one field of an ilk's record. The only recognized field is
// "line". Absent rows are created, so File doubles as initialization.
func (v *Vat) File(ctx context.Context, caller model.Address, ilk model.Ilk, what string, value uint64) error {
	if err := v.l.requireWard(ctx, vatRegistry, caller); err != nil {
		return err
	}
	if what != "line" {
		return fmt.Errorf("vat: unrecognized field %q", what)
	}
	_, err := v.l.conn(ctx).ExecContext(ctx,
		`INSERT INTO vat_ilks (ilk, line) VALUES (?, ?)
		 ON CONFLICT(ilk) DO UPDATE SET line = excluded.line`,
		ilk.String(), int64(value))
	if err != nil {
		return fmt.Errorf("vat: file line: %w", err)
	}
	return nil
}

// Line reads an ilk's ceiling. An absent ilk reads as zero.
func (v *Vat) Line(ctx context.Context, ilk model.Ilk) (uint64, error) {
	var line int64
	err := v.l.conn(ctx).QueryRowContext(ctx,
		`SELECT line FROM vat_ilks WHERE ilk = ?`, ilk.String()).Scan(&line)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("vat: read line: %w", err)
	}
	return uint64(line), nil
}

// LineEntry is one row of the vat for listing surfaces.
type LineEntry struct {
	Ilk  string `json:"ilk"`
	Line uint64 `json:"line"`
}

// List returns every vat row ordered by ilk name.
func (v *Vat) List(ctx context.Context) ([]LineEntry, error) {
	rows, err := v.l.conn(ctx).QueryContext(ctx,
		`SELECT ilk, line FROM vat_ilks ORDER BY ilk`)
	if err != nil {
		return nil, fmt.Errorf("vat: list: %w", err)
	}
	defer rows.Close()

	var out []LineEntry
	for rows.Next() {
		var (
			ilk  string
			line int64
		)
		if err := rows.Scan(&ilk, &line); err != nil {
			return nil, fmt.Errorf("vat: scan: %w", err)
		}
		out = append(out, LineEntry{Ilk: ilk, Line: uint64(line)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vat: rows: %w", err)
	}
	return out, nil
}

// Rely grants usr write rights on the vat.
func (v *Vat) Rely(ctx context.Context, caller, usr model.Address) error {
	return v.l.rely(ctx, vatRegistry, caller, usr)
}

// Deny removes usr's write rights on the vat.
func (v *Vat) Deny(ctx context.Context, caller, usr model.Address) error {
	return v.l.deny(ctx, vatRegistry, caller, usr)
}
