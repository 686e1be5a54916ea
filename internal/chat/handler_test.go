package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"crewdesk/pkg/llm"
)

func setupRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, handler)
	return router
}

func readyHandle(provider llm.Provider) *Handle {
	return NewHandle(func() (*Orchestrator, error) {
		return NewOrchestrator(OrchestratorConfig{Provider: provider, Logger: testLogger()})
	})
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleChatEmptyMessageRejectedWithoutSideEffects(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	provider := &scriptedProvider{}
	handler := NewChatHandler(NewConversationStore(db), readyHandle(provider), testLogger(), 10)
	router := setupRouter(handler)

	recorder := postChat(t, router, `{"message": "   "}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("expected no model calls, got %d", len(provider.calls))
	}
	// No queries or writes may have reached the store.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected zero database interactions: %v", err)
	}
}

func TestHandleChatOversizedMessageRejected(t *testing.T) {
	provider := &scriptedProvider{}
	handler := NewChatHandler(nil, readyHandle(provider), testLogger(), 10)
	router := setupRouter(handler)

	body, _ := json.Marshal(ChatRequest{Message: strings.Repeat("a", maxMessageRunes+1)})
	recorder := postChat(t, router, string(body))
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("expected no model calls, got %d", len(provider.calls))
	}
}

func TestHandleChatOrchestratorUnavailable(t *testing.T) {
	handle := NewHandle(func() (*Orchestrator, error) {
		return nil, errors.New("missing API key")
	})
	handler := NewChatHandler(nil, handle, testLogger(), 10)
	router := setupRouter(handler)

	recorder := postChat(t, router, `{"message": "hello"}`)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}
}

func TestHandleChatEndToEndTech(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM \(`).
		WithArgs("c1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "agent", "created_at"}))
	mock.ExpectExec(`INSERT INTO chat_messages`).
		WithArgs("c1", "user", "Debug this null pointer", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO chat_messages`).
		WithArgs("c1", "assistant", "guard the pointer before use", TagTech).
		WillReturnResult(sqlmock.NewResult(0, 1))

	provider := &scriptedProvider{replies: []llm.Completion{
		{Content: "[[TECH]]"},
		{Content: "[[TECH]] guard the pointer before use"},
	}}
	handler := NewChatHandler(NewConversationStore(db), readyHandle(provider), testLogger(), 10)
	router := setupRouter(handler)

	recorder := postChat(t, router, `{"message": "Debug this null pointer", "conversation_id": "c1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response ChatResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Agent != TagTech {
		t.Fatalf("expected TECH, got %s", response.Agent)
	}
	if response.Content != "guard the pointer before use" {
		t.Fatalf("unexpected content %q", response.Content)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHandleChatModelFailureReturnsErrorTag(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("upstream timeout")}
	handler := NewChatHandler(nil, readyHandle(provider), testLogger(), 10)
	router := setupRouter(handler)

	recorder := postChat(t, router, `{"message": "hello"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with error payload, got %d", recorder.Code)
	}

	var response ChatResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Agent != TagError {
		t.Fatalf("expected ERROR agent, got %s", response.Agent)
	}
	if response.Content == "" {
		t.Fatal("expected explanatory content")
	}
}

func TestHandleChatHistoryFailureDegrades(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM \(`).
		WithArgs("c1", 10).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(`INSERT INTO chat_messages`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO chat_messages`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	provider := &scriptedProvider{replies: []llm.Completion{
		{Content: "[[TEAM]] hello"},
	}}
	handler := NewChatHandler(NewConversationStore(db), readyHandle(provider), testLogger(), 10)
	router := setupRouter(handler)

	recorder := postChat(t, router, `{"message": "hi", "conversation_id": "c1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 despite history failure, got %d", recorder.Code)
	}
}

func TestHandleGetConversationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, conversation_id, role, content, agent, created_at`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "agent", "created_at"}))

	handler := NewChatHandler(NewConversationStore(db), readyHandle(&scriptedProvider{}), testLogger(), 10)
	router := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/nope", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}
