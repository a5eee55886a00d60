// Package session orchestrates one generation or edit round trip: it
// builds the backend request, drives the streaming assembler, moves the
// UI-facing state machine and hands the finished raw content to
// persistence.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/locaith/locaith-design/internal/assembler"
	"github.com/locaith/locaith-design/internal/genai"
	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/service"
)

// State is the ephemeral generation session state.
type State string

const (
	StateIdle      State = "idle"
	StatePreparing State = "preparing"
	StateStreaming State = "streaming"
	StateError     State = "error"
)

const (
	// MaxPageCount caps the requested page count.
	MaxPageCount = 16

	// editThreshold is the minimum prior content length that flags a
	// round trip as an edit; anything shorter is treated as a fresh
	// generation.
	editThreshold = 50
)

var (
	ErrPromptRequired = errors.New("prompt is required unless an image is attached")
	ErrTooManyImages  = errors.New("at most 5 images per generation")
	ErrBusy           = errors.New("a generation is already in flight for this session")
)

// Request carries the inputs of one round trip.
type Request struct {
	OwnerID   string
	DesignID  string
	Prompt    string
	Type      model.DesignType
	Assets    []model.ImageAsset
	PageCount int
	// PriorContent is the existing raw content when refining a design.
	PriorContent string
	// Title is the current design title; when empty or the default, a
	// title is suggested from the prompt after a successful stream.
	Title string
}

// Hooks observe session progress. All callbacks are optional and invoked
// from the goroutine running the session, in stream order.
type Hooks struct {
	// OnStateChange fires on every state transition.
	OnStateChange func(s State)
	// OnFragment fires per received raw fragment.
	OnFragment func(text string)
	// OnDisplay fires with the substituted display content after each
	// fragment.
	OnDisplay func(display string)
	// OnSaved fires once persistence of the finished document succeeded.
	OnSaved func(d *model.Design)
}

// Session runs round trips for one open design document. Only one
// round trip may be in flight at a time; the busy flag gates re-triggering
// the way the editor disables its generate button.
type Session struct {
	gen  genai.Generator
	svc  service.DesignService
	hook Hooks

	mu    sync.Mutex
	state State
	busy  bool
	raw   string
}

// New creates an idle session.
func New(gen genai.Generator, svc service.DesignService, hook Hooks) *Session {
	return &Session{gen: gen, svc: svc, hook: hook, state: StateIdle}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RawContent returns the accumulator as of the last round trip. After a
// transport error this is the partial document, kept for inspection but
// never auto-persisted.
func (s *Session) RawContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	if s.hook.OnStateChange != nil {
		s.hook.OnStateChange(next)
	}
}

// Run executes one round trip and returns the persisted design on
// success. A cancelled context stops fragment processing without an
// error; the session returns to idle and nothing is persisted.
func (s *Session) Run(ctx context.Context, req Request) (*model.Design, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.raw = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	s.setState(StatePreparing)

	asm := assembler.New(req.Assets,
		assembler.WithFirstFragment(func() { s.setState(StateStreaming) }),
		assembler.WithPublisher(func(display string) {
			if s.hook.OnDisplay != nil {
				s.hook.OnDisplay(display)
			}
		}),
	)
	asm.Start()

	genReq := genai.Request{
		Prompt:    req.Prompt,
		Type:      req.Type,
		Assets:    req.Assets,
		PageCount: clampPages(req.PageCount, req.Type),
	}
	if len(req.PriorContent) > editThreshold {
		genReq.PriorContent = req.PriorContent
	}

	err := s.gen.StreamDesign(ctx, genReq, func(text string) {
		if ctx.Err() != nil {
			// Best-effort abandonment: a closed session stops fragment
			// processing without throwing.
			return
		}
		asm.Append(text)
		if s.hook.OnFragment != nil {
			s.hook.OnFragment(text)
		}
	})

	s.mu.Lock()
	s.raw = asm.Finish()
	s.mu.Unlock()

	if ctx.Err() != nil {
		s.setState(StateIdle)
		return nil, nil
	}
	if err != nil {
		// Partial content stays readable via RawContent but a document
		// that never reached end-of-stream is not treated as final.
		s.setState(StateError)
		return nil, err
	}

	d := &model.Design{
		ID:      req.DesignID,
		OwnerID: req.OwnerID,
		Prompt:  req.Prompt,
		Type:    req.Type,
		Content: cleanMarkup(asm.Finish()),
		Title:   s.resolveTitle(ctx, req),
		Assets:  req.Assets,
	}
	stored, err := s.svc.Save(ctx, d)
	if err != nil {
		s.setState(StateError)
		return nil, err
	}

	s.setState(StateIdle)
	if s.hook.OnSaved != nil {
		s.hook.OnSaved(stored)
	}
	return stored, nil
}

// resolveTitle keeps an explicit title and otherwise asks the backend for
// a suggestion, falling back to the default when that fails.
func (s *Session) resolveTitle(ctx context.Context, req Request) string {
	if req.Title != "" && req.Title != "Untitled Design" {
		return req.Title
	}
	if req.Prompt == "" {
		return "Untitled Design"
	}
	title, err := s.gen.SuggestTitle(ctx, req.Prompt)
	if err != nil || title == "" {
		return "Untitled Design"
	}
	return title
}

func validate(req Request) error {
	if strings.TrimSpace(req.Prompt) == "" && len(req.Assets) == 0 {
		return ErrPromptRequired
	}
	if len(req.Assets) > model.MaxAssetsPerDesign {
		return ErrTooManyImages
	}
	return nil
}

func clampPages(n int, t model.DesignType) int {
	if n <= 0 {
		return t.DefaultPageCount()
	}
	if n > MaxPageCount {
		return MaxPageCount
	}
	return n
}

// cleanMarkup strips the code fences models occasionally wrap their
// output in.
func cleanMarkup(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.ReplaceAll(s, "```html", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
