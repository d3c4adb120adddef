package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/item"
)

func TestWriteReadSnapshotRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id := NewSnapshotID()
	require.NoError(t, s.WriteSnapshot(ctx, id, testRelations(), testRecords()))

	snap, err := s.ReadSnapshot(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, snap.ID)
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, ir.ExportVersion, snap.ExportVersion)
	assert.Equal(t, ir.ToolVersion, snap.ToolVersion)
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, testRelations(), snap.Relations)
	assert.Equal(t, testRecords(), snap.Items)
}

func TestReadSnapshotNullDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteSnapshot(ctx, "snap", testRelations(), testRecords()))
	snap, err := s.ReadSnapshot(ctx, "snap")
	require.NoError(t, err)

	require.Len(t, snap.Items, 3)
	assert.Nil(t, snap.Items[2].Document, "placeholder document stays NULL")
	assert.True(t, snap.Items[2].Placeholder)
	assert.True(t, snap.Items[2].IsImplicit("implemented-by", "REQ-1"))
}

func TestSnapshotKeepsDecomposedStrings(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	doc := "srs"
	records := []ir.ItemRecord{{
		ID:         "cafe\u0301",
		Document:   &doc,
		Attributes: map[string]string{"title": "cafe\u0301"},
	}}
	require.NoError(t, s.WriteSnapshot(ctx, "snap", testRelations(), records))

	snap, err := s.ReadSnapshot(ctx, "snap")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "cafe\u0301", snap.Items[0].ID)
	assert.Equal(t, "cafe\u0301", snap.Items[0].Attributes["title"])
}

func TestReadSnapshotNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestWriteSnapshotDuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteSnapshot(ctx, "snap", testRelations(), testRecords()))
	assert.Error(t, s.WriteSnapshot(ctx, "snap", nil, nil))

	infos, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestWriteSnapshotAtomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	records := []ir.ItemRecord{{ID: "A"}, {ID: "A"}}
	require.Error(t, s.WriteSnapshot(ctx, "broken", testRelations(), records))

	_, err := s.ReadSnapshot(ctx, "broken")
	assert.ErrorIs(t, err, ErrSnapshotNotFound, "a failed write leaves no snapshot behind")

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM relations").Scan(&count))
	assert.Zero(t, count)
}

func TestListAndLatestSnapshots(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	infos, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)

	_, err = s.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	// ids sort opposite to write order; listing must follow seq
	require.NoError(t, s.WriteSnapshot(ctx, "z-first", testRelations(), testRecords()))
	require.NoError(t, s.WriteSnapshot(ctx, "a-second", testRelations(), testRecords()[:1]))

	infos, err = s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "z-first", infos[0].ID)
	assert.Equal(t, int64(1), infos[0].Seq)
	assert.Equal(t, "a-second", infos[1].ID)
	assert.Equal(t, int64(2), infos[1].Seq)
	assert.Equal(t, 1, infos[1].ItemCount)

	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-second", latest.ID)
}

func TestSnapshotRestoresCollection(t *testing.T) {
	coll := graph.New()
	require.NoError(t, coll.AddRelationPair("implements", "implemented-by"))
	require.NoError(t, coll.AddOneWayRelation("external"))
	require.NoError(t, coll.AddItem(item.New("REQ-1", "srs")))
	require.NoError(t, coll.AddRelation("REQ-1", "implements", "DES-1"))
	require.NoError(t, coll.AddRelation("REQ-1", "external", "JIRA-7"))

	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSnapshot(ctx, "snap", coll.Registry().Pairs(), coll.Records()))

	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)

	restored, err := graph.Restore(snap.Relations, snap.Items)
	require.NoError(t, err)

	want, err := coll.MarshalExport()
	require.NoError(t, err)
	got, err := restored.MarshalExport()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	assert.Equal(t, coll.SelfTest("").Error(), restored.SelfTest("").Error(),
		"a restored snapshot re-validates to the same problems")
}

func TestNewSnapshotIDUnique(t *testing.T) {
	a, b := NewSnapshotID(), NewSnapshotID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
