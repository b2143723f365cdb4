package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
	"go.uber.org/zap"
)

// ErrAllBackendsExhausted matches any *ExhaustedError.
var ErrAllBackendsExhausted = errors.Sentinel("all generation backends are unavailable")

// Candidate is one model in the fallback order.
type Candidate struct {
	Provider string
	Model    string
	Backend  Backend
}

func (c Candidate) Name() string { return c.Provider + "/" + c.Model }

// Result is a successful generation and the candidate that produced it.
type Result struct {
	Text    string
	Backend string
}

// ExhaustedError reports that every candidate failed transiently.
type ExhaustedError struct {
	Tried []string
	Last  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all backends unavailable (tried %s): %v", strings.Join(e.Tried, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrAllBackendsExhausted }

// Option configures a Client.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithFallbackNotifier is called with the candidate name each time a
// non-primary candidate is about to be tried.
func WithFallbackNotifier(fn func(candidate string)) Option {
	return func(c *Client) { c.notify = fn }
}

func WithTransient(t *TransientClassifier) Option {
	return func(c *Client) { c.transient = t }
}

// Client walks the candidates in fixed order until one answers.
type Client struct {
	candidates []Candidate
	transient  *TransientClassifier
	logger     *zap.Logger
	notify     func(string)

	mu   sync.Mutex
	last string
}

func NewClient(candidates []Candidate, opts ...Option) (*Client, error) {
	if len(candidates) == 0 {
		return nil, errors.New("no generation backends configured")
	}
	c := &Client{
		candidates: candidates,
		transient:  NewTransientClassifier(config.Default().Transient),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate sends msg to each candidate in order. Conversational calls carry
// history; one-shot calls do not. A transient failure moves on to the next
// candidate immediately, any other failure is returned as is.
func (c *Client) Generate(ctx context.Context, history []session.Message, msg session.Message, conversational bool) (*Result, error) {
	if !conversational {
		history = nil
	}

	var (
		tried   []string
		lastErr error
	)
	for i, cand := range c.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := cand.Name()
		if i > 0 && c.notify != nil {
			c.notify(name)
		}

		text, err := cand.Backend.Generate(ctx, Request{Model: cand.Model, History: history, Message: msg})
		if err == nil {
			c.mu.Lock()
			c.last = name
			c.mu.Unlock()
			c.logger.Debug("generation succeeded", zap.String("backend", name), zap.Int("attempt", i+1))
			return &Result{Text: text, Backend: name}, nil
		}

		if !c.transient.IsTransient(err) {
			c.logger.Error("generation failed", zap.String("backend", name), zap.Error(err))
			return nil, errors.Wrapf(err, "generation failed on %s", name)
		}
		c.logger.Warn("backend unavailable, trying next", zap.String("backend", name), zap.Error(err))
		tried = append(tried, name)
		lastErr = err
	}
	return nil, &ExhaustedError{Tried: tried, Last: lastErr}
}

// LastBackend names the candidate that served the most recent successful
// call. It is informational only and never changes the order.
func (c *Client) LastBackend() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Candidates returns the configured order.
func (c *Client) Candidates() []string {
	out := make([]string, len(c.candidates))
	for i, cand := range c.candidates {
		out[i] = cand.Name()
	}
	return out
}
