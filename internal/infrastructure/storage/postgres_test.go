package storage

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDB answers every QueryRow with next and records the SQL it saw
type recordingDB struct {
	statements []string
	args       [][]any
	next       int64
	execErr    error
}

func (d *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.statements = append(d.statements, sql)
	d.args = append(d.args, args)
	return pgconn.NewCommandTag("SELECT 1"), d.execErr
}

func (d *recordingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unexpected Query")
}

func (d *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	d.statements = append(d.statements, sql)
	d.args = append(d.args, args)
	return intRow(d.next)
}

type intRow int64

func (r intRow) Scan(dest ...any) error {
	*dest[0].(*int64) = int64(r)
	return nil
}

func TestNextIDLocksCollectionFirst(t *testing.T) {
	db := &recordingDB{next: 7}

	id, err := nextID(context.Background(), db, "indicators")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	require.Len(t, db.statements, 2)
	assert.Contains(t, db.statements[0], "pg_advisory_xact_lock")
	assert.Contains(t, db.statements[1], "MAX(id)")
	assert.Equal(t, []any{"indicators"}, db.args[0])
	assert.Equal(t, []any{"indicators"}, db.args[1])
}

func TestNextIDStopsWhenLockFails(t *testing.T) {
	db := &recordingDB{execErr: assert.AnError}

	_, err := nextID(context.Background(), db, "feeds")
	require.ErrorIs(t, err, assert.AnError)
	assert.Len(t, db.statements, 1)
}
