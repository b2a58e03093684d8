package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/m3-catalog/internal/models"
)

func TestValuesClause(t *testing.T) {
	assert.Equal(t, "($1, $2), ($3, $4)", valuesClause(2, 2, 0))
	assert.Equal(t, "($4, $5, $6)", valuesClause(1, 3, 3))
}

func TestChunksStayUnderParameterLimit(t *testing.T) {
	parts := chunks(50000, 3)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, (p[1]-p[0])*3, maxBindParams)
	}
	assert.Equal(t, 50000, parts[len(parts)-1][1])
}

func TestBulkRepositoryInsertMediasAssignsIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulkRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO medias (file_uri, file_type, thumbnail_uri) VALUES ($1, $2, $3), ($4, $5, $6) RETURNING id")).
		WithArgs("/a.jpg", int64(1), "", "/b.mp3", int64(2), "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectCommit()

	medias := []models.Media{
		{FileURI: "/a.jpg", FileType: models.FileTypeImage},
		{FileURI: "/b.mp3", FileType: models.FileTypeAudio},
	}
	require.NoError(t, repo.InsertMedias(context.Background(), medias))
	assert.Equal(t, int64(10), medias[0].ID)
	assert.Equal(t, int64(11), medias[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkRepositoryInsertTagsPreallocatesIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulkRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval(pg_get_serial_sequence('tags', 'id')) FROM generate_series(1, $1)")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(100).AddRow(101))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tags (id, tagtype_id, tagset_id) VALUES ($1, $2, $3), ($4, $5, $6)")).
		WithArgs(int64(100), int64(1), int64(1), int64(101), int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO alphanumerical_tags (id, name, tagset_id) VALUES ($1, $2, $3)")).
		WithArgs(int64(100), "paris", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO numerical_tags (id, name, tagset_id) VALUES ($1, $2, $3)")).
		WithArgs(int64(101), int64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tags := []models.Tag{
		{TagSetID: 1, TagType: models.TagTypeAlphanumerical, Value: models.AlphanumericalValue("paris")},
		{TagSetID: 2, TagType: models.TagTypeNumerical, Value: models.NumericalValue(7)},
	}
	require.NoError(t, repo.InsertTags(context.Background(), tags))
	assert.Equal(t, int64(100), tags[0].ID)
	assert.Equal(t, int64(101), tags[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkRepositoryInsertTaggingsCountsInserted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulkRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO taggings (object_id, tag_id) VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING")).
		WithArgs(int64(1), int64(2), int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.InsertTaggings(context.Background(), []models.Tagging{{MediaID: 1, TagID: 2}, {MediaID: 1, TagID: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkRepositoryInsertTaggingsRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulkRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO taggings")).
		WillReturnError(errors.New("fk"))
	mock.ExpectRollback()

	_, err := repo.InsertTaggings(context.Background(), []models.Tagging{{MediaID: 1, TagID: 2}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkRepositoryTagSetTypes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulkRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tagtype_id FROM tagsets WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tagtype_id"}).AddRow(1, 1))

	types, err := repo.TagSetTypes(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, models.TagTypeAlphanumerical, types[1])
	_, ok := types[2]
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
