package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"advisor-ai/internal/assembly"
	"advisor-ai/internal/llm"
	"advisor-ai/internal/query"
	"advisor-ai/internal/ranking"
	"advisor-ai/internal/respond"
	"advisor-ai/internal/search"
	"advisor-ai/internal/strategy"
)

type fakeEngine struct {
	mu      sync.Mutex
	results []search.Result
	err     error
	calls   int
}

func (f *fakeEngine) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeChat struct {
	reply string
	err   error
	last  []llm.Message
}

func (f *fakeChat) ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
	f.last = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newPipeline(engine search.Engine, chat ChatClient) *Pipeline {
	return New(
		strategy.NewSelector(),
		engine,
		ranking.NewRanker(ranking.NewNeutralScoreProvider()),
		assembly.NewEngine(),
		respond.NewRanker(),
		respond.NewQualityAssessor(nil),
		Options{Chat: chat},
	)
}

func classified() query.Classification {
	return query.Classification{
		OriginalText: "How do I implement Grand Slam Offers for a SaaS startup?",
		Intent:       query.IntentImplementation,
		Frameworks: []query.FrameworkSignal{
			{Name: "grand_slam_offers", Relevance: 0.9},
		},
		BusinessStages: []string{"startup"},
	}
}

func passages() []search.Result {
	return []search.Result{
		{ID: "p1", Title: "Grand Slam Offer Basics", Content: "Start by defining the dream outcome and stack value for the customer.", Category: "playbook", Similarity: 0.9, FrameworkTags: []string{"grand_slam_offers"}, BusinessPhase: "startup", Complexity: "beginner"},
		{ID: "p2", Title: "Pricing the Offer", Content: "Price against revenue outcomes, not hours.", Category: "book", Similarity: 0.8, FrameworkTags: []string{"pricing_psychology"}, Complexity: "intermediate"},
		{ID: "p3", Title: "Guarantees", Content: "A strong guarantee removes customer risk and lifts conversion.", Category: "talk", Similarity: 0.7, FrameworkTags: []string{"grand_slam_offers"}, Complexity: "intermediate"},
	}
}

func TestAskEndToEnd(t *testing.T) {
	engine := &fakeEngine{results: passages()}
	p := newPipeline(engine, nil)

	answer, err := p.Ask(context.Background(), AskRequest{Classification: classified(), Debug: true})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.Response == nil {
		t.Fatal("expected an assembled response")
	}
	if answer.Text == "" {
		t.Error("expected composed answer text")
	}
	if len(answer.Sources) == 0 {
		t.Error("expected ranked sources")
	}
	if answer.Ranking == nil || len(answer.Ranking.Ranked) == 0 {
		t.Error("expected candidate ranking with three or more sources")
	}
	if answer.Assessment == nil {
		t.Error("expected a quality assessment")
	}
	if len(answer.Timings) == 0 {
		t.Error("expected phase timings in debug mode")
	}
	if engine.calls == 0 {
		t.Error("expected at least one search call")
	}
}

func TestAskInvalidClassification(t *testing.T) {
	p := newPipeline(&fakeEngine{}, nil)

	_, err := p.Ask(context.Background(), AskRequest{})
	if err == nil {
		t.Fatal("expected an error for empty classification")
	}
	var verr *query.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestAskAllSearchesFail(t *testing.T) {
	p := newPipeline(&fakeEngine{err: errors.New("store down")}, nil)

	_, err := p.Ask(context.Background(), AskRequest{Classification: classified()})
	if err == nil {
		t.Fatal("expected an error when every search approach fails")
	}
	if !strings.Contains(err.Error(), "search approaches failed") {
		t.Errorf("error = %v, want all-approaches-failed", err)
	}
}

func TestAskNoResultsDegrades(t *testing.T) {
	p := newPipeline(&fakeEngine{results: nil}, nil)

	answer, err := p.Ask(context.Background(), AskRequest{Classification: classified()})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(answer.Warnings) == 0 {
		t.Error("expected warnings for a zero-source answer")
	}
	if answer.Response.Quality.SourceDiversity != 0 {
		t.Errorf("source diversity = %.2f, want 0", answer.Response.Quality.SourceDiversity)
	}
	if answer.Text == "" {
		t.Error("expected fallback answer text")
	}
}

func TestAskUsesChatReply(t *testing.T) {
	chat := &fakeChat{reply: "Here is your offer playbook."}
	p := newPipeline(&fakeEngine{results: passages()}, chat)

	answer, err := p.Ask(context.Background(), AskRequest{Classification: classified()})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != "Here is your offer playbook." {
		t.Errorf("text = %q, want the chat reply", answer.Text)
	}
	if len(chat.last) != 2 {
		t.Fatalf("chat got %d messages, want system and user", len(chat.last))
	}
	if !strings.Contains(chat.last[1].Content, "Grand Slam Offers") {
		t.Error("user message missing the original question")
	}
}

func TestAskChatFailureFallsBack(t *testing.T) {
	chat := &fakeChat{err: errors.New("model offline")}
	p := newPipeline(&fakeEngine{results: passages()}, chat)

	answer, err := p.Ask(context.Background(), AskRequest{Classification: classified()})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text == "" {
		t.Error("expected locally composed text when chat fails")
	}
}
