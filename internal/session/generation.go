package session

import (
	"context"
	"sync"
)

// Token identifies one request issued through a Generation.
type Token uint64

// Generation implements last-request-wins for one logical query. Starting a
// request cancels the one before it, and only the newest token may apply its
// result.
type Generation struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin cancels the in-flight request, if any, and returns the context and
// token of the new one.
func (g *Generation) Begin(ctx context.Context) (context.Context, Token) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	g.seq++
	g.cancel = cancel
	return ctx, Token(g.seq)
}

// Invalidate supersedes the in-flight request without starting a new one.
func (g *Generation) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}

func (g *Generation) IsCurrent(t Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Token(g.seq) == t
}

// Finish releases the context of t once its result has been handled.
func (g *Generation) Finish(t Token) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if Token(g.seq) == t && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
