package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

type fakeBulkRepo struct {
	nextID   int64
	medias   []models.Media
	tags     []models.Tag
	taggings map[models.Tagging]struct{}
	types    map[int64]models.TagType
	failOn   int
	calls    int
}

func newFakeBulkRepo() *fakeBulkRepo {
	return &fakeBulkRepo{
		taggings: map[models.Tagging]struct{}{},
		types:    map[int64]models.TagType{1: models.TagTypeAlphanumerical, 2: models.TagTypeNumerical},
	}
}

func (f *fakeBulkRepo) fail() error {
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		return uniqueViolation()
	}
	return nil
}

func (f *fakeBulkRepo) InsertMedias(ctx context.Context, medias []models.Media) error {
	if err := f.fail(); err != nil {
		return err
	}
	for i := range medias {
		f.nextID++
		medias[i].ID = f.nextID
	}
	f.medias = append(f.medias, medias...)
	return nil
}

func (f *fakeBulkRepo) TagSetTypes(ctx context.Context, ids []int64) (map[int64]models.TagType, error) {
	out := map[int64]models.TagType{}
	for _, id := range ids {
		if typ, ok := f.types[id]; ok {
			out[id] = typ
		}
	}
	return out, nil
}

func (f *fakeBulkRepo) InsertTags(ctx context.Context, tags []models.Tag) error {
	if err := f.fail(); err != nil {
		return err
	}
	for i := range tags {
		f.nextID++
		tags[i].ID = f.nextID
	}
	f.tags = append(f.tags, tags...)
	return nil
}

func (f *fakeBulkRepo) InsertTaggings(ctx context.Context, taggings []models.Tagging) (int64, error) {
	if err := f.fail(); err != nil {
		return 0, err
	}
	var inserted int64
	for _, t := range taggings {
		if _, ok := f.taggings[t]; ok {
			continue
		}
		f.taggings[t] = struct{}{}
		inserted++
	}
	return inserted, nil
}

type countingNotifier struct {
	medias []models.Media
}

func (n *countingNotifier) NotifyCreated(ctx context.Context, medias ...models.Media) {
	n.medias = append(n.medias, medias...)
}

type recordingBulkObserver struct {
	ok, failed int
}

func (o *recordingBulkObserver) ObserveBulkBatch(entity string, ok bool, rows int64) {
	if ok {
		o.ok++
		return
	}
	o.failed++
}

func sliceSource[T any](items []T) Source[T] {
	i := 0
	return func() (T, error) {
		var zero T
		if i >= len(items) {
			return zero, io.EOF
		}
		item := items[i]
		i++
		return item, nil
	}
}

func collectAcks(acks *[]BatchAck) AckSink {
	return func(ack BatchAck) error {
		*acks = append(*acks, ack)
		return nil
	}
}

func mediaRequests(n int) []CreateMediaRequest {
	out := make([]CreateMediaRequest, n)
	for i := range out {
		out[i] = CreateMediaRequest{FileURI: fmt.Sprintf("file:///bulk/%d.jpg", i), FileType: models.FileTypeImage}
	}
	return out
}

func TestBulkServiceIngestMediasCutsBatches(t *testing.T) {
	repo := newFakeBulkRepo()
	notifier := &countingNotifier{}
	observer := &recordingBulkObserver{}
	svc := NewBulkService(repo, notifier, observer, 2, nil, nil)

	var acks []BatchAck
	summary, err := svc.IngestMedias(context.Background(), sliceSource(mediaRequests(5)), collectAcks(&acks))
	require.NoError(t, err)

	require.Len(t, acks, 3)
	assert.Equal(t, []int64{2, 2, 1}, []int64{acks[0].Count, acks[1].Count, acks[2].Count})
	assert.Equal(t, []int64{2, 4, 5}, []int64{acks[0].Total, acks[1].Total, acks[2].Total})
	assert.Equal(t, 3, acks[2].Batch)
	assert.Equal(t, StreamSummary{Batches: 3, Total: 5}, summary)
	assert.Len(t, repo.medias, 5)
	assert.Len(t, notifier.medias, 5)
	assert.Equal(t, 3, observer.ok)
	for _, m := range notifier.medias {
		assert.NotZero(t, m.ID)
	}
}

func TestBulkServiceFailedBatchDoesNotStopStream(t *testing.T) {
	repo := newFakeBulkRepo()
	repo.failOn = 2
	notifier := &countingNotifier{}
	observer := &recordingBulkObserver{}
	svc := NewBulkService(repo, notifier, observer, 2, nil, nil)

	var acks []BatchAck
	summary, err := svc.IngestMedias(context.Background(), sliceSource(mediaRequests(6)), collectAcks(&acks))
	require.NoError(t, err)

	require.Len(t, acks, 3)
	assert.Nil(t, acks[0].Error)
	require.NotNil(t, acks[1].Error)
	assert.Equal(t, appErrors.ErrConflict.Code, acks[1].Error.Code)
	assert.Equal(t, 2, acks[1].Batch)
	assert.Equal(t, int64(2), acks[1].Total)
	assert.Equal(t, int64(4), acks[2].Total)
	assert.Equal(t, StreamSummary{Batches: 3, Failed: 1, Total: 4}, summary)
	assert.Len(t, notifier.medias, 4)
	assert.Equal(t, 1, observer.failed)
}

func TestBulkServiceInvalidItemFailsOnlyItsBatch(t *testing.T) {
	repo := newFakeBulkRepo()
	svc := NewBulkService(repo, nil, nil, 2, nil, nil)
	items := mediaRequests(4)
	items[1].FileURI = ""

	var acks []BatchAck
	summary, err := svc.IngestMedias(context.Background(), sliceSource(items), collectAcks(&acks))
	require.NoError(t, err)
	require.Len(t, acks, 2)
	require.NotNil(t, acks[0].Error)
	assert.Equal(t, appErrors.ErrValidation.Code, acks[0].Error.Code)
	assert.Contains(t, acks[0].Error.Message, "item 1")
	assert.Equal(t, int64(2), summary.Total)
}

func TestBulkServiceCancellationDropsPendingBuffer(t *testing.T) {
	repo := newFakeBulkRepo()
	svc := NewBulkService(repo, nil, nil, 2, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := mediaRequests(5)
	i := 0
	next := func() (CreateMediaRequest, error) {
		if i == 3 {
			cancel()
		}
		item := items[i]
		i++
		return item, nil
	}

	var acks []BatchAck
	summary, err := svc.IngestMedias(ctx, next, collectAcks(&acks))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, acks, 1)
	assert.Equal(t, int64(2), summary.Total)
	assert.Len(t, repo.medias, 2)
}

func TestBulkServiceReceiveErrorStopsStream(t *testing.T) {
	repo := newFakeBulkRepo()
	svc := NewBulkService(repo, nil, nil, 10, nil, nil)
	broken := errors.New("unexpected end of JSON input")

	calls := 0
	next := func() (CreateMediaRequest, error) {
		calls++
		if calls == 3 {
			return CreateMediaRequest{}, broken
		}
		return mediaRequests(1)[0], nil
	}

	var acks []BatchAck
	_, err := svc.IngestMedias(context.Background(), next, collectAcks(&acks))
	assert.ErrorIs(t, err, broken)
	assert.Empty(t, acks)
	assert.Empty(t, repo.medias)
}

func TestBulkServiceIngestTagsReturnsIDMap(t *testing.T) {
	repo := newFakeBulkRepo()
	svc := NewBulkService(repo, nil, nil, 10, nil, nil)
	items := []BulkTagItem{
		{Ref: "a", TagSetID: 1, TagType: models.TagTypeAlphanumerical, Value: "red"},
		{Ref: "-7", TagSetID: 2, TagType: models.TagTypeNumerical, Value: "42"},
		{TagSetID: 1, TagType: models.TagTypeAlphanumerical, Value: "blue"},
	}

	var acks []BatchAck
	summary, err := svc.IngestTags(context.Background(), sliceSource(items), collectAcks(&acks))
	require.NoError(t, err)
	require.Len(t, acks, 1)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, map[string]int64{"a": repo.tags[0].ID, "-7": repo.tags[1].ID}, acks[0].IDMap)
	assert.Equal(t, int64(42), repo.tags[1].Value.Number)
}

func TestBulkServiceIngestTagsRejectsTypeMismatch(t *testing.T) {
	repo := newFakeBulkRepo()
	svc := NewBulkService(repo, nil, nil, 10, nil, nil)
	items := []BulkTagItem{
		{Ref: "a", TagSetID: 1, TagType: models.TagTypeAlphanumerical, Value: "red"},
		{Ref: "b", TagSetID: 2, TagType: models.TagTypeDate, Value: "2024-01-02"},
	}

	var acks []BatchAck
	summary, err := svc.IngestTags(context.Background(), sliceSource(items), collectAcks(&acks))
	require.NoError(t, err)
	require.Len(t, acks, 1)
	require.NotNil(t, acks[0].Error)
	assert.Equal(t, appErrors.ErrTypeMismatch.Code, acks[0].Error.Code)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, repo.tags)

	acks = nil
	_, err = svc.IngestTags(context.Background(), sliceSource([]BulkTagItem{
		{TagSetID: 9, TagType: models.TagTypeAlphanumerical, Value: "x"},
	}), collectAcks(&acks))
	require.NoError(t, err)
	require.NotNil(t, acks[0].Error)
	assert.Equal(t, appErrors.ErrInvalidReference.Code, acks[0].Error.Code)
}

func TestBulkServiceIngestTaggingsCountsInsertedRows(t *testing.T) {
	repo := newFakeBulkRepo()
	repo.taggings[models.Tagging{MediaID: 1, TagID: 1}] = struct{}{}
	svc := NewBulkService(repo, nil, nil, 10, nil, nil)
	items := []CreateTaggingRequest{
		{MediaID: 1, TagID: 1},
		{MediaID: 1, TagID: 2},
		{MediaID: 2, TagID: 1},
		{MediaID: 1, TagID: 2},
	}

	var acks []BatchAck
	summary, err := svc.IngestTaggings(context.Background(), sliceSource(items), collectAcks(&acks))
	require.NoError(t, err)
	require.Len(t, acks, 1)
	assert.Equal(t, int64(2), acks[0].Count)
	assert.Equal(t, int64(2), summary.Total)
}

func TestBulkServiceStopsWhenAckSinkFails(t *testing.T) {
	repo := newFakeBulkRepo()
	svc := NewBulkService(repo, nil, nil, 1, nil, nil)
	gone := errors.New("client went away")

	summary, err := svc.IngestMedias(context.Background(), sliceSource(mediaRequests(3)), func(BatchAck) error { return gone })
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 1, summary.Batches)
}
