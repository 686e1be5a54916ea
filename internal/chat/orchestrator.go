package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"crewdesk/internal/knowledge"
	"crewdesk/pkg/llm"
	"crewdesk/pkg/logging"
)

const (
	// Model calls from concurrent requests share one bounded gate so a slow
	// provider cannot pile up unbounded in-flight work.
	maxConcurrentModelCalls = 5

	defaultModelTimeout = 60 * time.Second
)

var ErrNotConfigured = errors.New("orchestrator is not configured")

// Reply is the normalized outcome of one orchestrated exchange.
type Reply struct {
	Content string
	Agent   string
}

// OrchestratorConfig wires the orchestrator's collaborators. Knowledge and
// Embedder may both be nil, which builds the roster in its
// knowledge-unavailable variant.
type OrchestratorConfig struct {
	Provider    llm.Provider
	Knowledge   *knowledge.Store
	Embedder    *knowledge.Embedder
	Logger      logging.Logger
	Timeout     time.Duration
	SearchLimit int
	AutoLearn   bool
}

// Orchestrator routes one message to at most one specialist and produces a
// tagged reply. Read-only after construction; safe for concurrent use.
type Orchestrator struct {
	provider    llm.Provider
	knowledge   *knowledge.Store
	embedder    *knowledge.Embedder
	roster      map[string]SpecialistProfile
	logger      logging.Logger
	sem         *semaphore.Weighted
	timeout     time.Duration
	searchLimit int
	autoLearn   bool
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultModelTimeout
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}

	knowledgeAvailable := cfg.Knowledge != nil && cfg.Embedder != nil
	return &Orchestrator{
		provider:    cfg.Provider,
		knowledge:   cfg.Knowledge,
		embedder:    cfg.Embedder,
		roster:      BuildRoster(knowledgeAvailable),
		logger:      cfg.Logger,
		sem:         semaphore.NewWeighted(maxConcurrentModelCalls),
		timeout:     cfg.Timeout,
		searchLimit: cfg.SearchLimit,
		autoLearn:   cfg.AutoLearn,
	}, nil
}

// KnowledgeAvailable reports whether specialists run with knowledge search.
func (o *Orchestrator) KnowledgeAvailable() bool {
	return o.knowledge != nil && o.embedder != nil
}

// Respond runs the two-phase exchange: a routing call against the delegation
// policy, then, when a specialist was chosen, an execution call with that
// specialist's instructions. Errors from either model call are returned to
// the caller, which owns the error-tag conversion.
func (o *Orchestrator) Respond(ctx context.Context, message string, history []Turn) (Reply, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return Reply{}, fmt.Errorf("acquire model slot: %w", err)
	}
	defer o.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	routed, err := o.route(ctx, message, history)
	if err != nil {
		return Reply{}, err
	}

	reply := routed
	if routed.Agent != TagTeam {
		reply, err = o.execute(ctx, routed.Agent, message, history)
		if err != nil {
			return Reply{}, err
		}
	}

	// Every successful exchange is learned, generic answers included.
	if o.autoLearn && o.KnowledgeAvailable() {
		o.learn(ctx, message, reply.Content)
	}

	return reply, nil
}

// route asks the leader to pick a specialist or answer directly. A generic
// answer comes back fully formed with the TEAM tag.
func (o *Orchestrator) route(ctx context.Context, message string, history []Turn) (Reply, error) {
	messages := buildPromptMessages(LeaderPrompt, history, message)

	completion, err := o.provider.Complete(ctx, messages)
	if err != nil {
		modelCallsTotal.WithLabelValues("route", "error").Inc()
		return Reply{}, fmt.Errorf("routing call: %w", err)
	}
	modelCallsTotal.WithLabelValues("route", "success").Inc()

	tag, cleaned := ExtractAgentTag(completion.Content)
	if _, ok := o.roster[tag]; ok {
		return Reply{Agent: tag}, nil
	}
	// TEAM marker, unknown marker, or bare text: the leader answered itself.
	return Reply{Content: cleaned, Agent: TagTeam}, nil
}

// execute runs the chosen specialist's instructions against the message.
func (o *Orchestrator) execute(ctx context.Context, tag, message string, history []Turn) (Reply, error) {
	profile := o.roster[tag]

	instructions := profile.Instructions
	if profile.UsesKnowledge {
		if passages := o.retrievePassages(ctx, message); passages != "" {
			instructions += "\n\nRetrieved knowledge passages:\n" + passages
		}
	}

	messages := buildPromptMessages(instructions, history, message)
	completion, err := o.provider.Complete(ctx, messages)
	if err != nil {
		modelCallsTotal.WithLabelValues("execute", "error").Inc()
		return Reply{}, fmt.Errorf("specialist call (%s): %w", tag, err)
	}
	modelCallsTotal.WithLabelValues("execute", "success").Inc()

	replyTag, cleaned := ExtractAgentTag(completion.Content)
	if replyTag == TagTeam {
		// The specialist skipped its marker; the routing decision stands.
		replyTag = tag
	}
	return Reply{Content: cleaned, Agent: replyTag}, nil
}

// retrievePassages embeds the query and searches the knowledge store. An
// embedding failure degrades to a zero vector so the request still runs,
// just with useless relevance. Search failures degrade to no passages.
func (o *Orchestrator) retrievePassages(ctx context.Context, query string) string {
	embedding, err := o.embedder.EmbedQuery(ctx, query)
	if err != nil {
		o.logger.WithError(err).Warn("Query embedding failed; using zero vector")
		embedding = o.embedder.ZeroVector()
	}

	passages, err := o.knowledge.Search(ctx, embedding, o.searchLimit)
	if err != nil {
		o.logger.WithError(err).Warn("Knowledge search failed; continuing without passages")
		return ""
	}

	var b strings.Builder
	for _, passage := range passages {
		if passage.Title != "" {
			b.WriteString("- " + passage.Title + ": ")
		} else {
			b.WriteString("- ")
		}
		b.WriteString(passage.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// learn stores the exchange as a knowledge passage in the background. The
// write outlives the request on purpose; visibility to later turns of the
// same conversation depends on timing and is not guaranteed.
func (o *Orchestrator) learn(ctx context.Context, question, answer string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		learnCtx, cancel := context.WithTimeout(bg, 30*time.Second)
		defer cancel()

		text := "Q: " + question + "\nA: " + answer
		embedding, err := o.embedder.EmbedQuery(learnCtx, text)
		if err != nil {
			o.logger.WithError(err).Warn("Auto-learn embedding failed; storing zero vector")
			embedding = o.embedder.ZeroVector()
		}
		if err := o.knowledge.Insert(learnCtx, truncateRunes(question, 200), text, embedding, map[string]any{
			"source": "auto_learn",
		}); err != nil {
			o.logger.WithError(err).Warn("Auto-learn insert failed")
		}
	}()
}

// buildPromptMessages assembles the chat-completion message list: system
// instructions, prior turns oldest first, then the current user message.
func buildPromptMessages(instructions string, history []Turn, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: instructions})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})
	return messages
}

// Handle is a lazily-initialized, thread-safe holder for the orchestrator.
// Construction is memoized on success only; a failed build is retried on the
// next request so a transient startup problem does not wedge the process.
type Handle struct {
	mu    sync.Mutex
	inst  *Orchestrator
	build func() (*Orchestrator, error)
}

func NewHandle(build func() (*Orchestrator, error)) *Handle {
	return &Handle{build: build}
}

// Get returns the cached orchestrator, building it on first use.
func (h *Handle) Get() (*Orchestrator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inst != nil {
		return h.inst, nil
	}
	inst, err := h.build()
	if err != nil {
		return nil, err
	}
	h.inst = inst
	return inst, nil
}

// Ready reports whether the orchestrator has been constructed.
func (h *Handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inst != nil
}
