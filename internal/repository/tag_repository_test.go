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

func TestTagRepositoryCreateWritesValueTable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTagRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tags (tagtype_id, tagset_id) VALUES ($1, $2) RETURNING id")).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO numerical_tags (id, name, tagset_id)")).
		WithArgs(int64(11), int64(42), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tag := &models.Tag{TagSetID: 2, TagType: models.TagTypeNumerical, Value: models.NumericalValue(42)}
	require.NoError(t, repo.Create(context.Background(), tag))
	assert.Equal(t, int64(11), tag.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepositoryCreateRollsBackOnValueFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTagRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tags")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO date_tags")).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	value, err := models.ParseTagValue(models.TagTypeDate, "2021-03-04")
	require.NoError(t, err)
	err = repo.Create(context.Background(), &models.Tag{TagSetID: 1, TagType: models.TagTypeDate, Value: value})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepositoryFindByValueUsesTypedTable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTagRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN timestamp_tags v ON v.id = t.id WHERE v.tagset_id = $1 AND v.name = $2")).
		WithArgs(int64(3), "2021-03-04 05:06:07").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tagset_id", "tagtype_id", "value"}).
			AddRow(8, 3, 2, "2021-03-04 05:06:07"))

	value, err := models.ParseTagValue(models.TagTypeTimestamp, "2021-03-04/05:06:07")
	require.NoError(t, err)
	tag, err := repo.FindByValue(context.Background(), 3, value)
	require.NoError(t, err)
	assert.Equal(t, int64(8), tag.ID)
	assert.Equal(t, "2021-03-04 05:06:07", tag.Value.Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepositoryListDecodesValues(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTagRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.tagset_id = $1 ORDER BY t.id LIMIT 100 OFFSET 0")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tagset_id", "tagtype_id", "value"}).
			AddRow(1, 4, 1, "paris").
			AddRow(2, 4, 1, "rome"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tags t WHERE t.tagset_id = $1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	tags, total, err := repo.List(context.Background(), models.TagFilter{TagSetID: 4})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "rome", tags[1].Value.Text)
	assert.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagSetRepositoryFindByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTagSetRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tagsets WHERE name = $1")).
		WithArgs("places").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tagtype_id"}).AddRow(4, "places", 1))

	set, err := repo.FindByName(context.Background(), "places")
	require.NoError(t, err)
	assert.Equal(t, models.TagTypeAlphanumerical, set.TagType)
	require.NoError(t, mock.ExpectationsWereMet())
}
