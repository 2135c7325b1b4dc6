// Package timeline tracks frame tokens.
//
// Every frame gets a Token from Issue. Tokens retire strictly in the order
// they were issued; Retired reports the newest retired token. Deferred work
// (resource destruction) is keyed by the newest issued token at the time it
// is queued and runs once that token retires.
package timeline

import (
	"errors"
	"fmt"
	"sync"
)

// Token identifies a frame. Tokens start at 1; zero means "no frame".
type Token uint64

// ErrOutOfOrder is returned when a token is retired out of sequence.
var ErrOutOfOrder = errors.New("timeline: token retired out of order")

// Timeline issues and retires frame tokens. It is safe for concurrent use.
type Timeline struct {
	mu      sync.Mutex
	issued  Token
	retired Token
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{}
}

// Issue returns the next frame token.
func (t *Timeline) Issue() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued++
	return t.issued
}

// Retire marks tok as retired. Only the token immediately after the last
// retired one may be retired.
func (t *Timeline) Retire(tok Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok != t.retired+1 || tok > t.issued {
		return fmt.Errorf("%w: got %d, next is %d (issued %d)", ErrOutOfOrder, tok, t.retired+1, t.issued)
	}
	t.retired = tok
	return nil
}

// RetireAll retires every issued token. Used on teardown.
func (t *Timeline) RetireAll() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retired = t.issued
	return t.retired
}

// Issued returns the newest issued token.
func (t *Timeline) Issued() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.issued
}

// Retired returns the newest retired token.
func (t *Timeline) Retired() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retired
}

// InFlight reports whether any issued token has not retired yet.
func (t *Timeline) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.issued > t.retired
}

// IsRetired reports whether tok has retired.
func (t *Timeline) IsRetired(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tok <= t.retired
}
