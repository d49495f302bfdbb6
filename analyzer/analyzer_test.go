package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"auto_sketch_enhancer/stage"
	"auto_sketch_enhancer/surface"
)

var testSketch = surface.Sketch{Data: []byte("\x89PNG\r\n\x1a\nfake"), Format: "png"}

func staticKey(k string) KeyProvider {
	return func() (string, error) { return k, nil }
}

func TestAnalyzeReturnsModelText(t *testing.T) {
	m := &MockVision{Description: "  mountains and a sun  "}
	a, err := New(staticKey("k"), MockFactory(m))
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Analyze(context.Background(), testSketch); got != "mountains and a sun" {
		t.Fatalf("got %q", got)
	}
	if n := m.Calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestAnalyzeFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		keys    KeyProvider
		factory ClientFactory
	}{
		{"missing key", func() (string, error) { return "", errors.New("no key") }, MockFactory(&MockVision{})},
		{"factory error", staticKey("k"), func(string) (VisionClient, error) { return nil, errors.New("boom") }},
		{"describe error", staticKey("k"), MockFactory(&MockVision{Err: errors.New("network")})},
		{"blank reply", staticKey("k"), MockFactory(&MockVision{Description: " \n\t"})},
		{"empty key rejected by client", staticKey(""), OpenAIFactory(LLMSettings{Provider: "gemini"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stage.Recorder{}
			a, err := New(tt.keys, tt.factory, WithObserver(rec))
			if err != nil {
				t.Fatal(err)
			}
			if got := a.Analyze(context.Background(), testSketch); got != FallbackDescription {
				t.Fatalf("got %q, want fallback", got)
			}
			if len(rec.Events) != 1 || rec.Events[0].Err == nil {
				t.Fatalf("events = %+v, want one error event", rec.Events)
			}
		})
	}
}

func TestAnalyzeNoRetry(t *testing.T) {
	m := &MockVision{Err: errors.New("503")}
	a, _ := New(staticKey("k"), MockFactory(m))
	a.Analyze(context.Background(), testSketch)
	if n := m.Calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(nil, MockFactory(&MockVision{})); err == nil {
		t.Fatal("expected error for nil key provider")
	}
	if _, err := New(staticKey("k"), nil); err == nil {
		t.Fatal("expected error for nil factory")
	}
}

func TestNewOpenAIVisionDefaults(t *testing.T) {
	v, err := NewOpenAIVisionFromConfig(&LLMSettings{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if v.Model != DefaultGeminiModel {
		t.Fatalf("model = %q", v.Model)
	}
	if _, err := NewOpenAIVisionFromConfig(&LLMSettings{Provider: "custom", APIKey: "k"}); err == nil {
		t.Fatal("expected error for custom provider without model")
	}
	if _, err := NewOpenAIVisionFromConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func TestOpenAIVisionRequestShape(t *testing.T) {
	var got chatRequest
	var auth string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"A house under clouds"}}]}`)
	}))
	defer srv.Close()

	a, err := New(staticKey("secret"), OpenAIFactory(LLMSettings{Provider: "openai", Model: "vision-test", BaseURL: srv.URL}))
	if err != nil {
		t.Fatal(err)
	}
	if desc := a.Analyze(context.Background(), testSketch); desc != "A house under clouds" {
		t.Fatalf("desc = %q", desc)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	if auth != "Bearer secret" {
		t.Fatalf("auth = %q", auth)
	}
	if got.Model != "vision-test" || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("roles = %s, %s", got.Messages[0].Role, got.Messages[1].Role)
	}
	user := string(got.Messages[1].Content)
	if !strings.Contains(user, "data:image/png;base64,") || !strings.Contains(user, "drawing style") {
		t.Fatalf("user content = %s", user)
	}
}

func TestOpenAIVisionServerErrorFallsBack(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"unavailable"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, _ := New(staticKey("k"), OpenAIFactory(LLMSettings{Provider: "openai", Model: "m", BaseURL: srv.URL}))
	if desc := a.Analyze(context.Background(), testSketch); desc != FallbackDescription {
		t.Fatalf("desc = %q", desc)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want a single attempt", calls)
	}
}

func TestMockVisionCountsConcurrentCalls(t *testing.T) {
	m := &MockVision{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Describe(context.Background(), Prompt{}, Image{Data: []byte{1}})
		}()
	}
	wg.Wait()
	if n := m.Calls.Load(); n != 8 {
		t.Fatalf("calls = %d, want 8", n)
	}
}

func TestAnalyzeSuccessEventCountsRunes(t *testing.T) {
	rec := &stage.Recorder{}
	a, _ := New(staticKey("k"), MockFactory(&MockVision{Description: "montaña"}), WithObserver(rec))
	a.Analyze(context.Background(), testSketch)
	if len(rec.Events) != 1 || rec.Events[0].Message != "described in 7 chars" {
		t.Fatalf("events = %+v", rec.Events)
	}
}
