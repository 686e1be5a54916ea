package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestAddTurnTruncatesUserContent(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	long := strings.Repeat("x", maxUserTurnRunes+100)
	mock.ExpectExec(`INSERT INTO chat_messages`).
		WithArgs("c1", "user", strings.Repeat("x", maxUserTurnRunes), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewConversationStore(db)
	if err := store.AddTurn(context.Background(), "c1", "user", long, ""); err != nil {
		t.Fatalf("add turn: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddTurnRejectsUnknownRole(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewConversationStore(db)
	if err := store.AddTurn(context.Background(), "c1", "moderator", "hi", ""); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRecentTurnsReversesAndRedacts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "agent", "created_at"})
	// The inner query orders newest first; the outer wrapper re-sorts oldest
	// first, which is what the mock rows represent here.
	contents := []string{
		"first question",
		"first answer",
		"see [attached file] for details",
		"second answer",
		"third question",
		"third answer",
	}
	for i, content := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		rows.AddRow("id-"+string(rune('a'+i)), "c1", role, content, "", base.Add(time.Duration(i)*time.Minute))
	}

	mock.ExpectQuery(`SELECT \* FROM \(\s*SELECT id, conversation_id, role, content, agent, created_at\s+FROM chat_messages\s+WHERE conversation_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2\s*\) recent ORDER BY created_at ASC`).
		WithArgs("c1", 6).
		WillReturnRows(rows)

	store := NewConversationStore(db)
	turns, err := store.RecentTurns(context.Background(), "c1", 6)
	if err != nil {
		t.Fatalf("recent turns: %v", err)
	}
	if len(turns) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(turns))
	}
	if turns[0].Content != "first question" || turns[5].Content != "third answer" {
		t.Fatalf("expected oldest-first ordering, got first=%q last=%q", turns[0].Content, turns[5].Content)
	}
	if turns[2].Content != redactedContent {
		t.Fatalf("expected attachment row redacted, got %q", turns[2].Content)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAllTurnsEmptyConversation(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, conversation_id, role, content, agent, created_at\s+FROM chat_messages`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "agent", "created_at"}))

	store := NewConversationStore(db)
	if _, err := store.AllTurns(context.Background(), "missing"); err != ErrNoConversation {
		t.Fatalf("expected ErrNoConversation, got %v", err)
	}
}
