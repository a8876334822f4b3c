package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// newSvcDB opens a throwaway in-memory database with the given models
// migrated. Shared across the service tests in this package.
func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func countWith(t *testing.T, db *gorm.DB, f ConversationFilter, now time.Time) int64 {
	t.Helper()
	total, err := repo.CountConversations(context.Background(), db, f.Compile(now))
	if err != nil {
		t.Fatalf("CountConversations: %v", err)
	}
	return total
}

func seedFilterData(t *testing.T, db *gorm.DB, now time.Time) {
	t.Helper()
	contacts := []domain.Contact{
		{Name: "Maria Silva", Phone: "5511999998888", Email: "maria@example.com"},
		{Name: "João Souza", Phone: "5521988887777"},
	}
	for i := range contacts {
		if err := db.Create(&contacts[i]).Error; err != nil {
			t.Fatalf("seed contact: %v", err)
		}
	}

	team := uint(4)
	agent := uint(9)
	today := now.Add(-1 * time.Hour)
	yesterday := now.Add(-26 * time.Hour)
	lastWeek := now.Add(-6 * 24 * time.Hour)
	old := now.Add(-60 * 24 * time.Hour)
	convs := []domain.Conversation{
		{ContactID: contacts[0].ID, Channel: domain.ChannelWhatsApp, Status: domain.StatusOpen,
			AssignedTeamID: &team, AssignedUserID: &agent, LastMessageAt: &today},
		{ContactID: contacts[0].ID, Channel: domain.ChannelInstagram, Status: domain.StatusClosed,
			LastMessageAt: &yesterday},
		{ContactID: contacts[1].ID, Channel: domain.ChannelWhatsApp, Status: domain.StatusOpen,
			LastMessageAt: &lastWeek},
		{ContactID: contacts[1].ID, Channel: domain.ChannelMessenger, Status: domain.StatusPending,
			LastMessageAt: &old},
	}
	for i := range convs {
		if err := db.Create(&convs[i]).Error; err != nil {
			t.Fatalf("seed conversation: %v", err)
		}
	}
}

func TestFilterCompile_EmptyMatchesEverything(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{}, &domain.Conversation{})
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	seedFilterData(t, db, now)

	if scopes := (ConversationFilter{}).Compile(now); len(scopes) != 0 {
		t.Fatalf("empty filter compiled to %d scopes, want 0", len(scopes))
	}
	if got := countWith(t, db, ConversationFilter{}, now); got != 4 {
		t.Fatalf("unfiltered count = %d, want 4", got)
	}
}

func TestFilterCompile_MalformedValuesAreIgnored(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{}, &domain.Conversation{})
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	seedFilterData(t, db, now)

	// Non-numeric agent/team and an unknown period must not reject the
	// request or constrain the result.
	f := ConversationFilter{Agent: "abc", Team: "not-a-team", Period: "fortnight"}
	if got := countWith(t, db, f, now); got != 4 {
		t.Fatalf("lenient count = %d, want 4", got)
	}
}

func TestFilterCompile_PeriodWindows(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{}, &domain.Conversation{})
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	seedFilterData(t, db, now)

	cases := map[string]int64{
		PeriodToday:     1, // 14:00 today only
		PeriodYesterday: 1, // 13:00 yesterday; today's row excluded by the upper bound
		PeriodWeek:      3,
		PeriodMonth:     3,
		PeriodAll:       4,
	}
	for period, want := range cases {
		if got := countWith(t, db, ConversationFilter{Period: period}, now); got != want {
			t.Errorf("period %q count = %d, want %d", period, got, want)
		}
	}
}

func TestFilterCompile_StatusTeamAgent(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{}, &domain.Conversation{})
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	seedFilterData(t, db, now)

	if got := countWith(t, db, ConversationFilter{Status: domain.StatusOpen}, now); got != 2 {
		t.Fatalf("status=open count = %d, want 2", got)
	}
	if got := countWith(t, db, ConversationFilter{Team: "4"}, now); got != 1 {
		t.Fatalf("team=4 count = %d, want 1", got)
	}
	if got := countWith(t, db, ConversationFilter{Agent: "9"}, now); got != 1 {
		t.Fatalf("agent=9 count = %d, want 1", got)
	}
	// Conjunction.
	f := ConversationFilter{Status: domain.StatusOpen, Team: "4", Agent: "9", Period: PeriodToday}
	if got := countWith(t, db, f, now); got != 1 {
		t.Fatalf("combined count = %d, want 1", got)
	}
}

func TestFilterCompile_SearchTermMatchesContactFields(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{}, &domain.Conversation{})
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	seedFilterData(t, db, now)

	// Phone substring: both of Maria's conversations surface.
	if got := countWith(t, db, ConversationFilter{SearchTerm: "9999"}, now); got != 2 {
		t.Fatalf("search 9999 count = %d, want 2", got)
	}
	// Case-insensitive name match.
	if got := countWith(t, db, ConversationFilter{SearchTerm: "mArIa"}, now); got != 2 {
		t.Fatalf("search maria count = %d, want 2", got)
	}
	// Email match.
	if got := countWith(t, db, ConversationFilter{SearchTerm: "maria@example"}, now); got != 2 {
		t.Fatalf("search email count = %d, want 2", got)
	}
	if got := countWith(t, db, ConversationFilter{SearchTerm: "no-such-person"}, now); got != 0 {
		t.Fatalf("search miss count = %d, want 0", got)
	}
}
