package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/m3-catalog/internal/models"
)

func TestHierarchyRepositoryCreateStartsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHierarchyRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hierarchies (name, tagset_id) VALUES ($1, $2) RETURNING id")).
		WithArgs("geo", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	h := &models.Hierarchy{Name: "geo", TagSetID: 3}
	require.NoError(t, repo.Create(context.Background(), h))
	assert.Equal(t, int64(1), h.ID)
	assert.Nil(t, h.RootID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHierarchyRepositoryLockAndSetRootInTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHierarchyRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM hierarchies WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tagset_id", "rootnode_id"}).AddRow(1, "geo", 3, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE hierarchies SET rootnode_id = $1 WHERE id = $2")).
		WithArgs(int64(9), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	h, err := repo.LockByID(context.Background(), tx, 1)
	require.NoError(t, err)
	assert.False(t, h.RootNodeID.Valid)
	require.NoError(t, repo.SetRoot(context.Background(), tx, 1, sql.NullInt64{Int64: 9, Valid: true}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHierarchyRepositoryRepairRoots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHierarchyRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("h.rootnode_id IS DISTINCT FROM r.node_id")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repaired, err := repo.RepairRoots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), repaired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeRepositoryReparentAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNodeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nodes SET parentnode_id = $1 WHERE parentnode_id = $2")).
		WithArgs(int64(2), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nodes WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	moved, err := repo.Reparent(context.Background(), nil, 5, sql.NullInt64{Int64: 2, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)
	require.NoError(t, repo.Delete(context.Background(), nil, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNodeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nodes WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), nil, 5), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeRepositoryListCombinesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNodeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM nodes WHERE hierarchy_id = $1 AND tag_id = $2 AND parentnode_id = $3 ORDER BY id")).
		WithArgs(int64(1), int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tag_id", "hierarchy_id", "parentnode_id"}).AddRow(6, 4, 1, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM nodes WHERE hierarchy_id = $1 AND tag_id = $2 AND parentnode_id = $3")).
		WithArgs(int64(1), int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	nodes, total, err := repo.List(context.Background(), models.NodeFilter{HierarchyID: 1, TagID: 4, ParentNodeID: 2})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(2), *nodes[0].ParentID())
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeRepositoryFindRoot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNodeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE hierarchy_id = $1 AND parentnode_id IS NULL")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tag_id", "hierarchy_id", "parentnode_id"}).AddRow(2, 4, 1, nil))

	root, err := repo.FindRoot(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeRepositoryChildrenAndSetParent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNodeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM nodes WHERE parentnode_id = $1 ORDER BY id FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tag_id", "hierarchy_id", "parentnode_id"}).
			AddRow(6, 4, 1, 5).
			AddRow(7, 8, 1, 5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nodes SET parentnode_id = $1 WHERE id = $2")).
		WithArgs(int64(2), int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	children, err := repo.Children(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, int64(8), children[1].TagID)
	require.NoError(t, repo.SetParent(context.Background(), nil, 6, sql.NullInt64{Int64: 2, Valid: true}))
	require.NoError(t, mock.ExpectationsWereMet())
}
