package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

func TestMediaServiceCreateOrGetFiresHookOnce(t *testing.T) {
	repo := newMockMediaRepo()
	var events []models.MediaCreatedEvent
	svc := NewMediaService(repo, validator.New(), zap.NewNop(), func(ctx context.Context, e models.MediaCreatedEvent) {
		events = append(events, e)
	})

	req := CreateMediaRequest{FileURI: "/photos/a.jpg", FileType: models.FileTypeImage, ThumbnailURI: "/t/a.jpg"}
	media, created, err := svc.CreateOrGet(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.CreateOrGet(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, media.ID, again.ID)

	require.Len(t, events, 1)
	assert.Equal(t, models.MediaCreatedEvent{ID: media.ID, URI: "/photos/a.jpg", FileType: models.FileTypeImage, ThumbnailURI: "/t/a.jpg"}, events[0])
	assert.Len(t, repo.items, 1)
}

func TestMediaServiceCreateOrGetConflictOnDifferentAttributes(t *testing.T) {
	repo := newMockMediaRepo()
	svc := NewMediaService(repo, nil, nil)

	_, _, err := svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "/a", FileType: models.FileTypeImage})
	require.NoError(t, err)

	_, _, err = svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "/a", FileType: models.FileTypeVideo})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Len(t, repo.items, 1)
}

func TestMediaServiceCreateOrGetRefetchesAfterUniqueViolation(t *testing.T) {
	repo := newMockMediaRepo()
	repo.race = &models.Media{FileURI: "/a", FileType: models.FileTypeAudio}
	fired := 0
	svc := NewMediaService(repo, nil, nil, func(context.Context, models.MediaCreatedEvent) { fired++ })

	media, created, err := svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "/a", FileType: models.FileTypeAudio})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), media.ID)
	assert.Zero(t, fired)
}

func TestMediaServiceCreateOrGetValidation(t *testing.T) {
	svc := NewMediaService(newMockMediaRepo(), nil, nil)

	_, _, err := svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "  ", FileType: models.FileTypeImage})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, _, err = svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "/a", FileType: models.FileType(9)})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestMediaServiceCreateSurfacesStorageFailure(t *testing.T) {
	repo := newMockMediaRepo()
	repo.createErr = errors.New("disk full")
	svc := NewMediaService(repo, nil, nil)

	_, _, err := svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "/a", FileType: models.FileTypeImage})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "disk full")
}

func TestMediaServiceLookupsAndDelete(t *testing.T) {
	repo := newMockMediaRepo()
	svc := NewMediaService(repo, nil, nil)

	media, _, err := svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: "/a", FileType: models.FileTypeOther})
	require.NoError(t, err)

	byURI, err := svc.GetByURI(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, media.ID, byURI.ID)

	require.NoError(t, svc.Delete(context.Background(), media.ID))

	_, err = svc.Get(context.Background(), media.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(context.Background(), media.ID), appErrors.ErrNotFound))
}

func TestMediaServiceListPagination(t *testing.T) {
	repo := newMockMediaRepo()
	svc := NewMediaService(repo, nil, nil).WithPageBounds(2, 10)
	for _, uri := range []string{"/a", "/b", "/c"} {
		_, _, err := svc.CreateOrGet(context.Background(), CreateMediaRequest{FileURI: uri, FileType: models.FileTypeImage})
		require.NoError(t, err)
	}

	items, pagination, err := svc.List(context.Background(), models.MediaFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 2, TotalCount: 3}, pagination)
}
