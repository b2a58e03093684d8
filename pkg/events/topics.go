package events

import "fmt"

// Topic naming: <domain>.<action>[.<subtype>].
const (
	TopicMediaCreatedPrefix = "media.created"
	TopicTaggingSuggested   = "tagging.suggested"
)

// MediaCreatedTopic routes media events by file type, e.g. media.created.image.
func MediaCreatedTopic(fileType string) string {
	return fmt.Sprintf("%s.%s", TopicMediaCreatedPrefix, fileType)
}
