// Package assembler accumulates the text fragments streamed back by the
// generation backend into a single raw document string, deriving the
// displayable (token-substituted) form after every fragment.
package assembler

import (
	"strings"

	"github.com/locaith/locaith-design/internal/codec"
	"github.com/locaith/locaith-design/internal/model"
)

// Assembler builds up raw content from ordered fragments. It treats the
// accumulator as an opaque growing string: fragments may split the
// document mid-tag, and the renderer is expected to tolerate transient
// malformed markup while streaming.
//
// An Assembler is not safe for concurrent use. Fragments must be appended
// in arrival order; markup is position-sensitive.
type Assembler struct {
	buf     strings.Builder
	assets  []model.ImageAsset
	publish func(display string)
	onFirst func()
	started bool
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPublisher registers a callback invoked with the freshly substituted
// display content after every appended fragment.
func WithPublisher(fn func(display string)) Option {
	return func(a *Assembler) { a.publish = fn }
}

// WithFirstFragment registers a one-shot callback fired on the first
// successful Append of a stream. The session controller uses it to move
// from preparing to streaming.
func WithFirstFragment(fn func()) Option {
	return func(a *Assembler) { a.onFirst = fn }
}

// New returns an Assembler substituting against the given asset set.
func New(assets []model.ImageAsset, opts ...Option) *Assembler {
	a := &Assembler{assets: assets}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start resets the accumulator to empty and re-arms the first-fragment
// signal.
func (a *Assembler) Start() {
	a.buf.Reset()
	a.started = false
}

// Append adds a fragment to the raw accumulator and publishes the derived
// display content. Safe to call at arbitrarily fine granularity.
func (a *Assembler) Append(fragment string) {
	if !a.started {
		a.started = true
		if a.onFirst != nil {
			a.onFirst()
		}
	}
	a.buf.WriteString(fragment)
	if a.publish != nil {
		a.publish(codec.Substitute(a.buf.String(), a.assets))
	}
}

// Finish returns the final raw accumulator. This is the value handed to
// persistence; it keeps its placeholder tokens.
func (a *Assembler) Finish() string {
	return a.buf.String()
}

// Len returns the current size of the raw accumulator in bytes.
func (a *Assembler) Len() int {
	return a.buf.Len()
}
