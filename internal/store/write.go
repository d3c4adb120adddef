package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/tracegraph/internal/ir"
)

// NewSnapshotID returns a fresh random snapshot id.
func NewSnapshotID() string {
	return uuid.NewString()
}

// WriteSnapshot stores relations and records as snapshot id, in one
// transaction. Either the whole snapshot is stored or nothing is.
//
// Writing an id that already exists fails; snapshots are never updated.
func (s *Store) WriteSnapshot(ctx context.Context, id string, relations []ir.RelationDecl, records []ir.ItemRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var seq int64
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots`).Scan(&seq); err != nil {
		return fmt.Errorf("write snapshot: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, seq, export_version, tool_version, item_count)
		VALUES (?, ?, ?, ?, ?)
	`, id, seq, ir.ExportVersion, ir.ToolVersion, len(records))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}

	if err = writeRelations(ctx, tx, id, relations); err != nil {
		return err
	}
	if err = writeItems(ctx, tx, id, records); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot %s: commit: %w", id, err)
	}

	s.logger.Debug("snapshot written", "snapshot", id, "seq", seq, "items", len(records))
	return nil
}

func writeRelations(ctx context.Context, tx *sql.Tx, snapshotID string, relations []ir.RelationDecl) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relations (snapshot_id, forward, reverse) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write relations: %w", err)
	}
	defer stmt.Close()

	for _, rel := range relations {
		reverse := sql.NullString{String: rel.Reverse, Valid: !rel.OneWay()}
		if _, err := stmt.ExecContext(ctx, snapshotID, rel.Forward, reverse); err != nil {
			return fmt.Errorf("write relation %s: %w", rel.Forward, err)
		}
	}
	return nil
}

func writeItems(ctx context.Context, tx *sql.Tx, snapshotID string, records []ir.ItemRecord) error {
	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (snapshot_id, id, document, placeholder, content, attributes)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write items: %w", err)
	}
	defer itemStmt.Close()

	targetStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO targets (snapshot_id, item_id, relation, target, implicit)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write targets: %w", err)
	}
	defer targetStmt.Close()

	for i := range records {
		rec := &records[i]
		attrs, err := marshalAttributes(rec.Attributes)
		if err != nil {
			return fmt.Errorf("write item %s: %w", rec.ID, err)
		}

		_, err = itemStmt.ExecContext(ctx,
			snapshotID,
			rec.ID,
			nullableString(rec.Document),
			boolToInt(rec.Placeholder),
			rec.Content,
			attrs,
		)
		if err != nil {
			return fmt.Errorf("write item %s: %w", rec.ID, err)
		}

		for rel, targets := range rec.Targets {
			for _, tgt := range targets {
				implicit := boolToInt(rec.IsImplicit(rel, tgt))
				if _, err := targetStmt.ExecContext(ctx, snapshotID, rec.ID, rel, tgt, implicit); err != nil {
					return fmt.Errorf("write target %s %s %s: %w", rec.ID, rel, tgt, err)
				}
			}
		}
	}
	return nil
}
