package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// ErrSnapshotNotFound is returned when a requested snapshot does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	ExportVersion string `json:"export_version"`
	ToolVersion   string `json:"tool_version"`
	ItemCount     int    `json:"item_count"`
}

// Snapshot is a stored collection, ready for graph.Restore.
type Snapshot struct {
	SnapshotInfo
	Relations []ir.RelationDecl
	Items     []ir.ItemRecord
}

// ListSnapshots returns every snapshot in write order.
// Returns an empty slice (not nil) if the store holds none.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, export_version, tool_version, item_count
		FROM snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	infos := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Seq, &info.ExportVersion, &info.ToolVersion, &info.ItemCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// LatestSnapshot returns the most recently written snapshot.
// Returns ErrSnapshotNotFound if the store is empty.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM snapshots ORDER BY seq DESC LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s.ReadSnapshot(ctx, id)
}

// ReadSnapshot returns snapshot id with its relations sorted by name and its
// items sorted by id.
// Returns ErrSnapshotNotFound if no such snapshot exists.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, export_version, tool_version, item_count
		FROM snapshots
		WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Seq, &snap.ExportVersion, &snap.ToolVersion, &snap.ItemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read snapshot %s: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	if snap.Relations, err = s.readRelations(ctx, id); err != nil {
		return nil, err
	}
	if snap.Items, err = s.readItems(ctx, id); err != nil {
		return nil, err
	}
	if err := s.readTargets(ctx, id, snap.Items); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) readRelations(ctx context.Context, snapshotID string) ([]ir.RelationDecl, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT forward, reverse
		FROM relations
		WHERE snapshot_id = ?
		ORDER BY forward COLLATE BINARY ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	relations := []ir.RelationDecl{}
	for rows.Next() {
		var (
			decl    ir.RelationDecl
			reverse sql.NullString
		)
		if err := rows.Scan(&decl.Forward, &reverse); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		decl.Reverse = reverse.String
		relations = append(relations, decl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}
	return relations, nil
}

func (s *Store) readItems(ctx context.Context, snapshotID string) ([]ir.ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, placeholder, content, attributes
		FROM items
		WHERE snapshot_id = ?
		ORDER BY id COLLATE BINARY ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []ir.ItemRecord{}
	for rows.Next() {
		var (
			rec         ir.ItemRecord
			document    sql.NullString
			placeholder int
			attrs       string
		)
		if err := rows.Scan(&rec.ID, &document, &placeholder, &rec.Content, &attrs); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		rec.Document = stringPtr(document)
		rec.Placeholder = placeholder == 1
		if rec.Attributes, err = unmarshalAttributes(attrs); err != nil {
			return nil, fmt.Errorf("item %s: %w", rec.ID, err)
		}
		rec.Targets = map[string][]string{}
		rec.Implicit = map[string][]string{}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// readTargets fills the Targets and Implicit maps of items.
func (s *Store) readTargets(ctx context.Context, snapshotID string, items []ir.ItemRecord) error {
	index := make(map[string]*ir.ItemRecord, len(items))
	for i := range items {
		index[items[i].ID] = &items[i]
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, relation, target, implicit
		FROM targets
		WHERE snapshot_id = ?
		ORDER BY item_id COLLATE BINARY ASC, relation COLLATE BINARY ASC, target COLLATE BINARY ASC
	`, snapshotID)
	if err != nil {
		return fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID, relation, target string
			implicit                 int
		)
		if err := rows.Scan(&itemID, &relation, &target, &implicit); err != nil {
			return fmt.Errorf("scan target: %w", err)
		}
		rec, ok := index[itemID]
		if !ok {
			return fmt.Errorf("target %s %s %s: item not in snapshot", itemID, relation, target)
		}
		rec.Targets[relation] = append(rec.Targets[relation], target)
		if implicit == 1 {
			rec.Implicit[relation] = append(rec.Implicit[relation], target)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate targets: %w", err)
	}
	return nil
}
