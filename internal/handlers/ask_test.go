package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"advisor-ai/internal/assembly"
	"advisor-ai/internal/pipeline"
	"advisor-ai/internal/query"
)

type fakeAsker struct {
	answer *pipeline.Answer
	err    error
	got    pipeline.AskRequest
}

func (f *fakeAsker) Ask(ctx context.Context, req pipeline.AskRequest) (*pipeline.Answer, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func TestAskHandlerSuccess(t *testing.T) {
	asker := &fakeAsker{answer: &pipeline.Answer{
		Text:     "Build the offer around the dream outcome.",
		Response: &assembly.Response{},
	}}
	handler := NewAskHandler(asker)

	body := `{
		"question": "How do I implement Grand Slam Offers?",
		"intent": "implementation",
		"frameworks": [{"name": "grand_slam_offers", "relevance": 0.9}],
		"business_stages": ["startup"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask?debug=true", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var answer pipeline.Answer
	if err := json.Unmarshal(w.Body.Bytes(), &answer); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if answer.Text == "" {
		t.Error("expected answer text")
	}

	if asker.got.Classification.Intent != query.IntentImplementation {
		t.Errorf("intent = %q, want implementation", asker.got.Classification.Intent)
	}
	if len(asker.got.Classification.Frameworks) != 1 || asker.got.Classification.Frameworks[0].Name != "grand_slam_offers" {
		t.Errorf("frameworks = %v", asker.got.Classification.Frameworks)
	}
	if !asker.got.Debug {
		t.Error("debug query parameter not forwarded")
	}
}

func TestAskHandlerValidationError(t *testing.T) {
	asker := &fakeAsker{err: &query.ValidationError{Field: "original_text", Message: "cannot be empty"}}
	handler := NewAskHandler(asker)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"intent":"learning"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "Validation error") {
		t.Errorf("body = %q, want validation error message", w.Body.String())
	}
}

func TestAskHandlerUpstreamError(t *testing.T) {
	asker := &fakeAsker{err: query.WrapUpstream(context.DeadlineExceeded, "embedding text")}
	handler := NewAskHandler(asker)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"q","intent":"learning"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestAskHandlerInvalidBody(t *testing.T) {
	handler := NewAskHandler(&fakeAsker{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAskHandlerMethodNotAllowed(t *testing.T) {
	handler := NewAskHandler(&fakeAsker{})

	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
