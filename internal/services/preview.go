// Package services - message preview resolver
//
// Resolves the most recent active message per conversation for an entire
// page in ONE batched store call. The single round-trip is the documented
// fix for a severe list regression (tens of seconds down to sub-second at
// realistic volumes) and is treated as a correctness property, not an
// optimization: tests assert the call count, and any change that
// reintroduces per-conversation fetches is a defect.
package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// previewMaxRunes is the display truncation limit for preview snippets.
const previewMaxRunes = 100

// MessagePreview is the truncated snippet of a conversation's most recent
// active message.
type MessagePreview struct {
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	FromContact    bool      `json:"from_contact"`
	SentAt         time.Time `json:"sent_at"`
	IsInternalNote bool      `json:"is_internal_note"`
}

// PreviewStore is the single batched query the resolver depends on.
type PreviewStore interface {
	// LatestActivePerConversation returns at most one row per id: the most
	// recent non-deleted message, tie-broken by sent_at DESC then id DESC.
	LatestActivePerConversation(ctx context.Context, conversationIDs []uint) ([]repo.PreviewRow, error)
}

// PreviewResolver maps a set of conversation ids to display previews.
type PreviewResolver struct {
	Store PreviewStore
}

// NewPreviewResolver constructs a resolver over the given store.
func NewPreviewResolver(store PreviewStore) *PreviewResolver {
	return &PreviewResolver{Store: store}
}

// Resolve fetches previews for the given ids in one store call. Ids with no
// active message are absent from the map; an empty input returns an empty
// map without touching the store.
func (r *PreviewResolver) Resolve(ctx context.Context, conversationIDs []uint) (map[uint]MessagePreview, error) {
	out := make(map[uint]MessagePreview, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	rows, err := r.Store.LatestActivePerConversation(ctx, conversationIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConversationID] = MessagePreview{
			Content:        truncatePreview(row.Content),
			Type:           row.Type,
			FromContact:    row.FromContact,
			SentAt:         row.SentAt,
			IsInternalNote: row.IsInternalNote,
		}
	}
	return out, nil
}

// truncatePreview clips content to previewMaxRunes runes, appending an
// ellipsis when clipped. Media messages reach here as their caption or
// placeholder text, never raw payload bytes.
func truncatePreview(content string) string {
	if utf8.RuneCountInString(content) <= previewMaxRunes {
		return content
	}
	return string([]rune(content)[:previewMaxRunes]) + "..."
}
