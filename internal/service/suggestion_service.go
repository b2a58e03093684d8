package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/events"
	"github.com/noah-isme/m3-catalog/pkg/middleware/requestid"
)

type tagSetResolver interface {
	CreateOrGet(ctx context.Context, req CreateTagSetRequest) (*models.TagSet, bool, error)
	Get(ctx context.Context, id int64) (*models.TagSet, error)
}

type tagCreator interface {
	CreateOrGet(ctx context.Context, req CreateTagRequest) (*models.Tag, bool, error)
}

type taggingCreator interface {
	Create(ctx context.Context, req CreateTaggingRequest) (*models.Tagging, bool, error)
}

type suggestionObserver interface {
	ObserveSuggestion(outcome string)
}

// Suggestion outcomes reported to metrics.
const (
	SuggestionApplied  = "applied"
	SuggestionRejected = "rejected"
	SuggestionFailed   = "failed"
)

// SuggestionService turns tag suggestions from the analysis pipeline into
// tags and taggings through the same services the HTTP API uses.
type SuggestionService struct {
	tagSets  tagSetResolver
	tags     tagCreator
	taggings taggingCreator
	metrics  suggestionObserver
	logger   *zap.Logger
}

// NewSuggestionService creates a suggestion service. metrics may be nil.
func NewSuggestionService(tagSets tagSetResolver, tags tagCreator, taggings taggingCreator, metrics suggestionObserver, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{tagSets: tagSets, tags: tags, taggings: taggings, metrics: metrics, logger: logger}
}

// Apply resolves the tagset, creates or gets the tag and tags the media.
func (s *SuggestionService) Apply(ctx context.Context, sug models.TagSuggestion) (*models.Tagging, error) {
	set, err := s.resolveTagSet(ctx, sug)
	if err != nil {
		return nil, err
	}
	tag, _, err := s.tags.CreateOrGet(ctx, CreateTagRequest{TagSetID: set.ID, TagType: sug.TagType, Value: sug.Value})
	if err != nil {
		return nil, err
	}
	tagging, _, err := s.taggings.Create(ctx, CreateTaggingRequest{MediaID: sug.MediaID, TagID: tag.ID})
	return tagging, err
}

func (s *SuggestionService) resolveTagSet(ctx context.Context, sug models.TagSuggestion) (*models.TagSet, error) {
	name := strings.TrimSpace(sug.TagSetName)
	switch {
	case sug.TagSetID > 0 && name == "":
		set, err := s.tagSets.Get(ctx, sug.TagSetID)
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("tagset %d does not exist", sug.TagSetID))
		}
		return set, err
	case sug.TagSetID == 0 && name != "":
		set, _, err := s.tagSets.CreateOrGet(ctx, CreateTagSetRequest{Name: name, TagType: sug.TagType})
		return set, err
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of tagset_id and tagset_name is required")
}

// Handle is the bus handler for suggestion messages. Malformed or rejected
// suggestions are logged and acked; storage failures are returned so the
// router retries them.
func (s *SuggestionService) Handle(msg *message.Message) error {
	ctx := msg.Context()
	if reqID := msg.Metadata.Get(events.MetaRequestID); reqID != "" {
		ctx = requestid.WithValue(ctx, reqID)
	}
	log := s.logger.With(zap.String("message_uuid", msg.UUID))

	sug, err := events.Decode[models.TagSuggestion](msg)
	if err != nil {
		log.Warn("malformed tag suggestion dropped", zap.Error(err))
		s.observe(SuggestionRejected)
		return nil
	}

	tagging, err := s.Apply(ctx, sug)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= 500 {
			log.Error("tag suggestion failed", zap.Int64("media_id", sug.MediaID), zap.Error(err))
			s.observe(SuggestionFailed)
			return err
		}
		log.Warn("tag suggestion rejected", zap.Int64("media_id", sug.MediaID), zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
		s.observe(SuggestionRejected)
		return nil
	}

	log.Debug("tag suggestion applied", zap.Int64("media_id", tagging.MediaID), zap.Int64("tag_id", tagging.TagID))
	s.observe(SuggestionApplied)
	return nil
}

func (s *SuggestionService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveSuggestion(outcome)
	}
}
