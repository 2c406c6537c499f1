package ai

import (
	"context"
	"sync"
)

// StaticGenerator replays canned responses. It records every prompt it
// receives and is intended for tests and local runs without a model.
type StaticGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

// NewStaticGenerator returns responses in order, repeating the last one.
func NewStaticGenerator(responses ...string) *StaticGenerator {
	return &StaticGenerator{responses: responses}
}

// NewFailingGenerator fails every call with err.
func NewFailingGenerator(err error) *StaticGenerator {
	return &StaticGenerator{err: err}
}

func (g *StaticGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	i := len(g.prompts) - 1
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

// Prompts returns a copy of every prompt received so far.
func (g *StaticGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}
