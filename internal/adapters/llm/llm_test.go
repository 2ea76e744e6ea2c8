package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type memBackend struct {
	mu      sync.Mutex
	data    map[string]string
	readErr error
	sets    int
}

func newMemBackend() *memBackend { return &memBackend{data: map[string]string{}} }

func (m *memBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", m.readErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", errCacheMiss
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func counting(text string, err error) (*int, Generator) {
	calls := 0
	return &calls, GeneratorFunc(func(context.Context, string) (string, error) {
		calls++
		return text, err
	})
}

func TestDisabled(t *testing.T) {
	Convey("Given the disabled provider", t, func() {
		_, err := Disabled{}.Generate(context.Background(), "hi")
		So(errors.Is(err, ErrDisabled), ShouldBeTrue)
		So(ProviderOf(Disabled{}), ShouldEqual, "none")
	})
}

func TestCached(t *testing.T) {
	Convey("Given a cached generator", t, func() {
		ctx := context.Background()
		backend := newMemBackend()

		Convey("When the same prompt is generated twice", func() {
			calls, next := counting("answer", nil)
			g := NewCached(next, backend, time.Minute, nil)
			firstCtx, firstHit := WithCacheTracking(ctx)
			first, err1 := g.Generate(firstCtx, "p")
			secondCtx, secondHit := WithCacheTracking(ctx)
			second, err2 := g.Generate(secondCtx, "p")

			Convey("Then the provider is called once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, "answer")
				So(second, ShouldEqual, "answer")
				So(*calls, ShouldEqual, 1)
				So(backend.data, ShouldContainKey, CacheKey("p"))
			})

			Convey("Then only the second answer is flagged as a cache hit", func() {
				So(*firstHit, ShouldBeFalse)
				So(*secondHit, ShouldBeTrue)
			})
		})

		Convey("When the provider fails", func() {
			_, next := counting("", ErrEmptyResponse)
			g := NewCached(next, backend, time.Minute, nil)
			_, err := g.Generate(ctx, "p")

			Convey("Then nothing is cached", func() {
				So(errors.Is(err, ErrEmptyResponse), ShouldBeTrue)
				So(backend.sets, ShouldEqual, 0)
			})
		})

		Convey("When the cache cannot be read", func() {
			backend.readErr = errors.New("connection refused")
			calls, next := counting("fresh", nil)
			text, err := NewCached(next, backend, time.Minute, nil).Generate(ctx, "p")

			Convey("Then generation still succeeds", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "fresh")
				So(*calls, ShouldEqual, 1)
			})
		})
	})

	Convey("Given two prompts", t, func() {
		So(CacheKey("a"), ShouldNotEqual, CacheKey("b"))
		So(CacheKey("a"), ShouldStartWith, cacheKeyPrefix)
	})
}

func TestBounded(t *testing.T) {
	Convey("Given a slow provider behind a deadline", t, func() {
		slow := GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
				return "late", nil
			}
		})
		_, err := NewBounded(slow, 20*time.Millisecond).Generate(context.Background(), "p")
		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
	})
}

func TestOpenAIClient(t *testing.T) {
	Convey("Given an OpenAI-compatible server", t, func() {
		var gotModel string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Model string `json:"model"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			gotModel = req.Model
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  explained  "},"finish_reason":"stop"}]}`))
		}))
		defer srv.Close()

		c, err := NewOpenAIClient("key", "gpt-4o-mini", srv.URL)
		So(err, ShouldBeNil)
		text, err := c.Generate(context.Background(), "why?")

		So(err, ShouldBeNil)
		So(text, ShouldEqual, "explained")
		So(gotModel, ShouldEqual, "gpt-4o-mini")
	})

	Convey("Given a server that errors", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, _ := NewOpenAIClient("key", "m", srv.URL)
		_, err := c.Generate(context.Background(), "why?")
		So(err, ShouldNotBeNil)
	})
}

func TestClaudeClient(t *testing.T) {
	Convey("Given a messages API server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"risk is high"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":3}}`))
		}))
		defer srv.Close()

		c, err := NewClaudeClient("key", "claude-3-5-haiku-latest", srv.URL)
		So(err, ShouldBeNil)
		text, err := c.Generate(context.Background(), "why?")
		So(err, ShouldBeNil)
		So(text, ShouldEqual, "risk is high")
	})
}

func TestNew(t *testing.T) {
	Convey("Given provider configurations", t, func() {
		ctx := context.Background()

		Convey("When none is selected", func() {
			g, closeFn, err := New(ctx, Config{Provider: "none"}, nil)
			So(err, ShouldBeNil)
			So(closeFn(), ShouldBeNil)
			_, err = g.Generate(ctx, "p")
			So(errors.Is(err, ErrDisabled), ShouldBeTrue)
		})

		Convey("When the provider is unknown", func() {
			_, _, err := New(ctx, Config{Provider: "bard"}, nil)
			So(errors.Is(err, ErrUnknownProvider), ShouldBeTrue)
		})

		Convey("When a hosted provider has no key", func() {
			_, _, err := New(ctx, Config{Provider: "gemini"}, nil)
			So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
			_, _, err = New(ctx, Config{Provider: "claude"}, nil)
			So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
		})

		Convey("When openai is selected", func() {
			g, _, err := New(ctx, Config{Provider: "openai", APIKey: "k", Model: "m", Timeout: time.Second}, nil)
			So(err, ShouldBeNil)
			So(ProviderOf(g), ShouldEqual, "openai")
		})
	})
}
