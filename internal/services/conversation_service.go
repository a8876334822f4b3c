// Package services - ConversationService
//
// This file implements the conversation list assembler, the single entry
// point for "give me page N of conversations matching filter F". It combines
// the filter compiler, the batched preview resolver, and contact essentials
// into conversation summaries under a strict latency posture:
//
//   - exactly one page query + one batched preview query per page, never a
//     per-conversation fetch;
//   - an oversized limit is reduced server-side, not rejected;
//   - a failed preview batch degrades the page (summaries without previews)
//     instead of failing it; a missing snippet is a usable UI, an empty
//     list is not;
//   - a short-TTL cache absorbs polling bursts in front of the page query.
//
// Ordering is always last_message_at descending. Because that column mutates
// as messages arrive, offset pagination is not gap-free or duplicate-free
// under concurrent writes; that is accepted, documented behavior.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/cache"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// ContactCard is the essential contact projection embedded in a summary,
// deliberately not the full contact record, to bound payload size.
type ContactCard struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ConversationSummary is the denormalized list view: conversation fields,
// contact essentials, and the resolved preview when one exists.
type ConversationSummary struct {
	Conversation domain.Conversation `json:"conversation"`
	Contact      ContactCard         `json:"contact"`
	Preview      *MessagePreview     `json:"preview,omitempty"`
}

// ConversationLister is the repository contract required by the assembler.
type ConversationLister interface {
	ListConversationsPage(ctx context.Context, db *gorm.DB, scopes []repo.Scope, limit, offset int) ([]domain.Conversation, error)
	CountConversations(ctx context.Context, db *gorm.DB, scopes []repo.Scope) (int64, error)
	ListUnassigned(ctx context.Context, db *gorm.DB, limit, offset int) ([]domain.Conversation, error)
}

// Previewer resolves message previews for a page of conversation ids.
type Previewer interface {
	Resolve(ctx context.Context, conversationIDs []uint) (map[uint]MessagePreview, error)
}

// ConversationService assembles paginated, filtered conversation views and
// owns the non-assignment lifecycle mutations (status changes).
type ConversationService struct {
	DB       *gorm.DB
	Repo     ConversationLister
	Previews Previewer
	Cache    cache.Cache

	// Notify receives lifecycle events; nil means no broadcast.
	Notify Notifier

	// DefaultPageSize applies when the caller sends no/invalid limit.
	DefaultPageSize int
	// MaxPageSize is the defensive server-side cap for plain lists; an
	// oversized request is reduced to it, never rejected.
	MaxPageSize int
	// SearchMaxPageSize caps the search variant. Search defaults larger:
	// the user is hunting one precise item across months of history.
	SearchMaxPageSize int

	// Now is the clock used for period filters; tests override it.
	Now func() time.Time
}

// Pagination posture shared with the HTTP layer. Handlers resolve the
// effective page size from these before computing offsets, so offset math
// and row limits agree.
const (
	DefaultPageSize = 30
	MaxPageSize     = 100
	SearchPageSize  = 500
)

// NewConversationService constructs the assembler with the documented
// page-size posture.
func NewConversationService(db *gorm.DB, r ConversationLister, p Previewer, c cache.Cache) *ConversationService {
	return &ConversationService{
		DB:                db,
		Repo:              r,
		Previews:          p,
		Cache:             c,
		DefaultPageSize:   DefaultPageSize,
		MaxPageSize:       MaxPageSize,
		SearchMaxPageSize: SearchPageSize,
		Now:               time.Now,
	}
}

// cachedPage is the cache serialization of one assembled page.
type cachedPage struct {
	Items []ConversationSummary `json:"items"`
	Total int64                 `json:"total"`
}

// ListPage returns one page of conversation summaries matching the filter,
// ordered by last_message_at descending, plus the total match count.
func (s *ConversationService) ListPage(ctx context.Context, limit, offset int, f ConversationFilter) ([]ConversationSummary, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
			attribute.String("filter.period", f.Period),
			attribute.String("filter.status", f.Status),
		),
	)
	defer span.End()

	limit = clampLimit(limit, s.DefaultPageSize, s.MaxPageSize)
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("list:%s|%s|%s|%s|%d|%d", f.Period, f.Team, f.Status, f.Agent, limit, offset)
	if page, ok := s.cacheGet(ctx, key); ok {
		return page.Items, page.Total, nil
	}

	scopes := f.Compile(s.now())
	total, err := s.Repo.CountConversations(ctx, s.DB, scopes)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []ConversationSummary{}, 0, nil
	}

	convs, err := s.Repo.ListConversationsPage(ctx, s.DB, scopes, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items := s.assemble(ctx, convs)
	s.cacheSet(ctx, key, cachedPage{Items: items, Total: total})
	return items, total, nil
}

// Get returns the detail summary for a single conversation, with contact
// essentials and the resolved preview. The cache is bypassed: the detail view
// follows an action on the conversation and must reflect it.
func (s *ConversationService) Get(ctx context.Context, id uint) (*ConversationSummary, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int("conversation_id", int(id))),
	)
	defer span.End()

	conv, err := repo.GetConversationWithContact(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	items := s.assemble(ctx, []domain.Conversation{*conv})
	return &items[0], nil
}

// UpdateStatus moves a conversation through its lifecycle (open, pending,
// closed, resolved) and announces the change to connected clients.
func (s *ConversationService) UpdateStatus(ctx context.Context, id uint, status string) error {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.Int("conversation_id", int(id)),
			attribute.String("status", status),
		),
	)
	defer span.End()

	switch status {
	case domain.StatusOpen, domain.StatusPending, domain.StatusClosed, domain.StatusResolved:
	default:
		return ErrInvalidStatus
	}

	if err := repo.UpdateStatus(ctx, s.DB, id, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}

	if s.Notify != nil {
		s.Notify.Broadcast(id, Event{Type: EventConversationStatus, ConversationID: id, Payload: status})
		s.Notify.BroadcastToAll(Event{Type: EventConversationStatus, ConversationID: id})
	}
	return nil
}

// Search returns summaries whose contact name, phone, or email contains the
// term (case-insensitive substring). Output shape matches ListPage; the
// page-size cap is the looser search cap, and results bypass the cache.
func (s *ConversationService) Search(ctx context.Context, term string, limit, offset int) ([]ConversationSummary, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	limit = clampLimit(limit, s.SearchMaxPageSize, s.SearchMaxPageSize)
	if offset < 0 {
		offset = 0
	}

	scopes := ConversationFilter{SearchTerm: term}.Compile(s.now())
	total, err := s.Repo.CountConversations(ctx, s.DB, scopes)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []ConversationSummary{}, 0, nil
	}
	convs, err := s.Repo.ListConversationsPage(ctx, s.DB, scopes, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return s.assemble(ctx, convs), total, nil
}

// Unassigned returns the queue of conversations with neither team nor user.
func (s *ConversationService) Unassigned(ctx context.Context, limit, offset int) ([]ConversationSummary, error) {
	limit = clampLimit(limit, s.DefaultPageSize, s.MaxPageSize)
	if offset < 0 {
		offset = 0
	}
	convs, err := s.Repo.ListUnassigned(ctx, s.DB, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, convs), nil
}

// assemble joins conversations with contact cards and batched previews.
// Preview failure is degraded-data: logged, never propagated.
func (s *ConversationService) assemble(ctx context.Context, convs []domain.Conversation) []ConversationSummary {
	ids := make([]uint, len(convs))
	for i := range convs {
		ids[i] = convs[i].ID
	}

	previews, err := s.Previews.Resolve(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Int("conversations", len(ids)).
			Msg("preview batch failed; returning page without previews")
		previews = map[uint]MessagePreview{}
	}

	items := make([]ConversationSummary, len(convs))
	for i := range convs {
		c := convs[i]
		item := ConversationSummary{
			Conversation: c,
			Contact: ContactCard{
				ID:        c.Contact.ID,
				Name:      c.Contact.Name,
				Phone:     c.Contact.Phone,
				AvatarURL: c.Contact.AvatarURL,
			},
		}
		if p, ok := previews[c.ID]; ok {
			pv := p
			item.Preview = &pv
		}
		items[i] = item
	}
	return items
}

func (s *ConversationService) cacheGet(ctx context.Context, key string) (cachedPage, bool) {
	if s.Cache == nil {
		return cachedPage{}, false
	}
	b, err := s.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Debug().Err(err).Str("key", key).Msg("conversation cache read failed")
		}
		return cachedPage{}, false
	}
	var page cachedPage
	if err := json.Unmarshal(b, &page); err != nil {
		return cachedPage{}, false
	}
	return page, true
}

func (s *ConversationService) cacheSet(ctx context.Context, key string, page cachedPage) {
	if s.Cache == nil {
		return
	}
	b, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, b); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("conversation cache write failed")
	}
}

func (s *ConversationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// clampLimit applies the default for missing/invalid limits and reduces
// oversized requests to the cap.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
