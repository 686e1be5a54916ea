package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoConversation = errors.New("conversation has no messages")

const (
	// Independent truncation limits for the two roles. User turns are short
	// prompts; assistant turns carry full generated answers.
	maxUserTurnRunes      = 8000
	maxAssistantTurnRunes = 16000

	redactedContent = "[attachment omitted]"
)

// attachmentPlaceholders mark rows where the client substituted a large
// uploaded file. These are redacted from prompt context to bound size.
var attachmentPlaceholders = []string{"[attached file", "[file attached"}

func containsAttachmentPlaceholder(content string) bool {
	for _, marker := range attachmentPlaceholders {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// Turn is one logged message of a conversation.
type Turn struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Agent          string
	CreatedAt      time.Time
}

// ConversationStore appends and reads conversation turns. Writes are
// best-effort from the handler's point of view; this type reports errors and
// leaves the swallow-and-log decision to the caller.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// AddTurn appends one turn, truncating content to the per-role limit first.
func (s *ConversationStore) AddTurn(ctx context.Context, conversationID, role, content, agent string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation ID is required")
	}
	if role != "user" && role != "assistant" {
		return fmt.Errorf("invalid role %q", role)
	}

	limit := maxUserTurnRunes
	if role == "assistant" {
		limit = maxAssistantTurnRunes
	}
	content = truncateRunes(content, limit)

	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO chat_messages (conversation_id, role, content, agent)
		 VALUES ($1, $2, $3, $4)`,
		conversationID,
		role,
		content,
		agent,
	); err != nil {
		return fmt.Errorf("add turn: %w", err)
	}

	return nil
}

// RecentTurns returns the last `limit` turns of a conversation, oldest first.
// Attachment placeholder rows are redacted so they never inflate a prompt.
func (s *ConversationStore) RecentTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation ID is required")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT * FROM (
			SELECT id, conversation_id, role, content, agent, created_at
			FROM chat_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent ORDER BY created_at ASC`,
		conversationID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get recent turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(
			&turn.ID,
			&turn.ConversationID,
			&turn.Role,
			&turn.Content,
			&turn.Agent,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if containsAttachmentPlaceholder(turn.Content) {
			turn.Content = redactedContent
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get recent turns rows: %w", err)
	}

	return turns, nil
}

// AllTurns returns the full conversation, oldest first.
func (s *ConversationStore) AllTurns(ctx context.Context, conversationID string) ([]Turn, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation ID is required")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, conversation_id, role, content, agent, created_at
		 FROM chat_messages
		 WHERE conversation_id = $1
		 ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(
			&turn.ID,
			&turn.ConversationID,
			&turn.Role,
			&turn.Content,
			&turn.Agent,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get turns rows: %w", err)
	}

	if len(turns) == 0 {
		return nil, ErrNoConversation
	}
	return turns, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
