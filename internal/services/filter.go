// Package services - conversation filter compiler
//
// This file translates the request-level filter object into a conjunctive
// set of gorm scopes over the conversations table. Field semantics are
// documented per field below; the overriding contract is LENIENCY: unknown
// or malformed values are ignored, never rejected, so the list stays usable
// under partial client state. Compiling an empty filter yields an empty
// scope set, which matches everything.
package services

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// Filter periods. Today/yesterday are calendar-aligned in server local time;
// week/month are rolling 7/30-day windows.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodAll       = "all"
)

// ConversationFilter is the high-level filter a client sends with a list
// request. Zero values impose no constraint.
type ConversationFilter struct {
	// Period bounds last_message_at: today | yesterday | week | month | all.
	Period string
	// Team is an exact match on assigned_team_id. There is no "unassigned"
	// sentinel; that is a dedicated query.
	Team string
	// Status is an exact match on the lifecycle status string.
	Status string
	// Agent is an exact match on assigned_user_id. Non-numeric values are
	// silently ignored.
	Agent string
	// SearchTerm is a case-insensitive substring match against contact
	// name, phone, or email. Used by the search variant only.
	SearchTerm string
}

// Compile turns the filter into gorm scopes evaluated against now.
func (f ConversationFilter) Compile(now time.Time) []repo.Scope {
	var scopes []repo.Scope

	if since, until, ok := periodRange(f.Period, now); ok {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			q := db.Where("conversations.last_message_at >= ?", since)
			if !until.IsZero() {
				q = q.Where("conversations.last_message_at < ?", until)
			}
			return q
		})
	}

	if id, err := strconv.ParseUint(strings.TrimSpace(f.Team), 10, 64); err == nil {
		teamID := uint(id)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("conversations.assigned_team_id = ?", teamID)
		})
	}

	if s := strings.TrimSpace(f.Status); s != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("conversations.status = ?", s)
		})
	}

	// Non-numeric agent values are dropped, not rejected.
	if id, err := strconv.ParseUint(strings.TrimSpace(f.Agent), 10, 64); err == nil {
		userID := uint(id)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("conversations.assigned_user_id = ?", userID)
		})
	}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.
				Joins("JOIN contacts ON contacts.id = conversations.contact_id").
				Where("LOWER(contacts.name) LIKE ? OR contacts.phone LIKE ? OR LOWER(contacts.email) LIKE ?",
					pattern, pattern, pattern)
		})
	}

	return scopes
}

// periodRange resolves a period keyword to a [since, until) window.
// until is the zero time when the window is open-ended. ok is false when the
// period imposes no bound (absent, "all", or unrecognized).
func periodRange(period string, now time.Time) (since, until time.Time, ok bool) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodToday:
		return dayStart, time.Time{}, true
	case PeriodYesterday:
		return dayStart.AddDate(0, 0, -1), dayStart, true
	case PeriodWeek:
		return now.AddDate(0, 0, -7), time.Time{}, true
	case PeriodMonth:
		return now.AddDate(0, 0, -30), time.Time{}, true
	default:
		return time.Time{}, time.Time{}, false
	}
}
