package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/m3-catalog/internal/models"
)

func TestCellRepositoryStateGroupsByUsedAxes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCellRepository(db)
	mock.ExpectQuery(`(?s)SELECT g\.x_key, g\.y_key, g\.z_key.*a0\.coord AS x_key, 0 AS y_key, a2\.coord AS z_key.*`+
		`JOIN \(SELECT r\.object_id, r\.tag_id AS coord FROM taggings r JOIN tags t ON t\.id = r\.tag_id WHERE t\.tagset_id = \$1\) a0.*`+
		`SELECT DISTINCT r\.object_id, sub\.root_id AS coord.*\) a2.*`+
		`JOIN \(SELECT DISTINCT object_id FROM taggings WHERE tag_id = ANY\(\$3\)\) f0 ON f0\.object_id = m\.id`+
		` GROUP BY a0\.coord, a2\.coord\) g`).
		WithArgs(int64(4), int64(9), pq.Array([]int64{7, 8})).
		WillReturnRows(sqlmock.NewRows([]string{"x_key", "y_key", "z_key", "count", "cover_id", "file_uri", "thumbnail_uri"}).
			AddRow(11, 0, 20, 3, 42, "/a.jpg", "/a_t.jpg"))

	rows, err := repo.State(context.Background(), models.CellQuery{
		X:       models.CellAxis{Type: models.AxisTagSet, ID: 4},
		Z:       models.CellAxis{Type: models.AxisNode, ID: 9},
		Filters: []models.CellFilter{{Type: models.FilterTag, IDs: []int64{7, 8}}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CellRow{XKey: 11, ZKey: 20, Count: 3, CoverID: 42, FileURI: "/a.jpg", ThumbnailURI: "/a_t.jpg"}, rows[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCellRepositoryStateWithoutAxesHasNoGroupBy(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCellRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 0 AS x_key, 0 AS y_key, 0 AS z_key, COUNT(DISTINCT m.id) AS count, MAX(m.id) AS cover_id\nFROM medias m) g")).
		WillReturnRows(sqlmock.NewRows([]string{"x_key", "y_key", "z_key", "count", "cover_id", "file_uri", "thumbnail_uri"}))

	rows, err := repo.State(context.Background(), models.CellQuery{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCellRepositoryObjectsWithRangeAndNodeFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCellRepository(db)
	filters := []models.CellFilter{
		{Type: models.FilterNode, IDs: []int64{3}},
		{Type: models.FilterRange, Ranges: []models.CellRange{
			{TagSetID: 2, Low: "10", High: "20", TagType: models.TagTypeNumerical},
			{TagSetID: 5, Low: "40", High: "50", TagType: models.TagTypeNumerical},
		}},
	}
	joins := `JOIN \(SELECT DISTINCT object_id FROM taggings WHERE tag_id IN \(WITH RECURSIVE sub AS \(\nSELECT id, tag_id FROM nodes WHERE id = ANY\(\$1\).*\) f0 ON f0\.object_id = m\.id\n` +
		`JOIN \(SELECT DISTINCT r\.object_id FROM taggings r JOIN numerical_tags v ON v\.id = r\.tag_id WHERE ` +
		`\(v\.tagset_id = \$2 AND v\.name BETWEEN \$3 AND \$4\) OR \(v\.tagset_id = \$5 AND v\.name BETWEEN \$6 AND \$7\)\) f1`
	args := []driver.Value{pq.Array([]int64{3}), int64(2), "10", "20", int64(5), "40", "50"}

	mock.ExpectQuery(`(?s)SELECT m\.id, m\.file_uri, m\.thumbnail_uri FROM medias m\n` + joins + ` ORDER BY m\.id LIMIT 10 OFFSET 10`).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_uri", "thumbnail_uri"}).AddRow(12, "/c.jpg", ""))
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) FROM medias m\n` + joins).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	objects, total, err := repo.Objects(context.Background(), models.CellObjectQuery{
		Filters:     filters,
		PageRequest: models.PageRequest{Page: 2, PageSize: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Equal(t, []models.CubeObject{{ID: 12, FileURI: "/c.jpg"}}, objects)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCellRepositoryRejectsUnknownFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCellRepository(db)
	_, _, err := repo.Objects(context.Background(), models.CellObjectQuery{Filters: []models.CellFilter{{Type: "color"}}})
	require.Error(t, err)

	_, _, err = repo.Objects(context.Background(), models.CellObjectQuery{Filters: []models.CellFilter{{Type: models.FilterRange, Ranges: []models.CellRange{
		{TagSetID: 1, TagType: models.TagTypeDate},
		{TagSetID: 2, TagType: models.TagTypeTime},
	}}}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCellRepositoryAxisMembersOrderByValue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCellRepository(db)
	mock.ExpectQuery(`(?s)SELECT nd\.id FROM nodes nd JOIN tags t ON t\.id = nd\.tag_id.*WHERE nd\.parentnode_id = \$1 ORDER BY n\.name, ts\.name`).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8).AddRow(7))

	ids, err := repo.AxisMembers(context.Background(), models.CellAxis{Type: models.AxisNode, ID: 6})
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 7}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCellRepositoryTimelinePassesWindowSeconds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	at := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := NewCellRepository(db)
	mock.ExpectQuery(`(?s)WITH anchor AS .*make_interval\(secs => \$3\).*ORDER BY v\.name, m\.id`).
		WithArgs(int64(1), int64(3), float64(1800)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_uri", "thumbnail_uri", "at"}).
			AddRow(1, "/a.jpg", "", at).
			AddRow(2, "/b.jpg", "", at.Add(10*time.Minute)))

	entries, err := repo.Timeline(context.Background(), 1, 3, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[1].ID)
	assert.Equal(t, at.Add(10*time.Minute), entries[1].At)
	require.NoError(t, mock.ExpectationsWereMet())
}
