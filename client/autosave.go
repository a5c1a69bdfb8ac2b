package client

import (
	"context"
	"errors"
	"fillop/logger"
	courseModels "fillop/models/course"
	"sync"
	"time"
)

// DefaultDelay is the quiet period after the last edit before a save.
const DefaultDelay = 3 * time.Second

const saveTimeout = 30 * time.Second

var (
	ErrEditorClosed = errors.New("editor is closed")
	ErrOutOfRange   = errors.New("question or answer index out of range")
)

type State int

const (
	Clean State = iota
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// Saver persists the full assessment and returns what the server stored.
// *Client implements it.
type Saver interface {
	SaveAssessment(ctx context.Context, moduleID uint, draft *courseModels.Assessment) (*courseModels.Assessment, error)
}

type stopper interface{ Stop() bool }

type afterFunc func(d time.Duration, f func()) stopper

func realAfter(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) }

// Editor holds an assessment being edited and saves it after Delay of
// inactivity. Each edit restarts the countdown. Saves send the entire question
// list; the server echo replaces local state. When newer edits arrived while
// the save was in flight, only the echo's IDs and removals are merged in.
type Editor struct {
	saver    Saver
	moduleID uint
	delay    time.Duration
	after    afterFunc
	log      *logger.Logger

	mu       sync.Mutex
	doc      courseModels.Assessment
	state    State
	rev      uint64
	nextKey  uint64
	timer    stopper
	inflight chan struct{}
	err      error
	closed   bool
	onError  func(error)
	onSaved  func(*courseModels.Assessment)
}

type EditorOption func(*Editor)

func WithDelay(d time.Duration) EditorOption {
	return func(e *Editor) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithErrorHandler is called, outside the editor lock, whenever a save fails.
func WithErrorHandler(f func(error)) EditorOption {
	return func(e *Editor) { e.onError = f }
}

// WithSavedHandler is called after each successful save with the server echo.
func WithSavedHandler(f func(*courseModels.Assessment)) EditorOption {
	return func(e *Editor) { e.onSaved = f }
}

func WithEditorLogger(l *logger.Logger) EditorOption {
	return func(e *Editor) { e.log = l }
}

func NewEditor(saver Saver, moduleID uint, initial *courseModels.Assessment, opts ...EditorOption) *Editor {
	e := &Editor{
		saver:    saver,
		moduleID: moduleID,
		delay:    DefaultDelay,
		after:    realAfter,
		log:      logger.Log,
	}
	if initial != nil {
		e.doc = cloneAssessment(initial)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenEditor loads the module's assessment and starts an editor on it.
func (c *Client) OpenEditor(ctx context.Context, moduleID uint, opts ...EditorOption) (*Editor, error) {
	assessment, err := c.Assessment(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	opts = append([]EditorOption{WithEditorLogger(c.log)}, opts...)
	return NewEditor(c, moduleID, assessment, opts...), nil
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error of the most recent failed save, cleared by the next
// successful one.
func (e *Editor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Snapshot returns the full local state, deletion-flagged entries included.
func (e *Editor) Snapshot() courseModels.Assessment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAssessment(&e.doc)
}

// Visible returns the local state without questions or answers flagged for
// deletion.
func (e *Editor) Visible() courseModels.Assessment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneAssessment(&e.doc)
	questions := out.Questions[:0]
	for _, q := range out.Questions {
		if q.Delete {
			continue
		}
		answers := q.Answers[:0]
		for _, a := range q.Answers {
			if !a.Delete {
				answers = append(answers, a)
			}
		}
		q.Answers = answers
		questions = append(questions, q)
	}
	out.Questions = questions
	return out
}

// Edit applies fn to the local state and restarts the save countdown.
func (e *Editor) Edit(fn func(a *courseModels.Assessment) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}
	if err := fn(&e.doc); err != nil {
		return err
	}
	e.touchLocked()
	return nil
}

func (e *Editor) touchLocked() {
	e.rev++
	e.state = Dirty
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = e.after(e.delay, e.fire)
}

func (e *Editor) AddQuestion(text string) error {
	return e.Edit(func(a *courseModels.Assessment) error {
		a.Questions = append(a.Questions, courseModels.Question{Text: text})
		return nil
	})
}

func (e *Editor) SetQuestionText(q int, text string) error {
	return e.Edit(func(a *courseModels.Assessment) error {
		if q < 0 || q >= len(a.Questions) {
			return ErrOutOfRange
		}
		a.Questions[q].Text = text
		return nil
	})
}

func (e *Editor) AddAnswer(q int, text string, correct bool) error {
	return e.Edit(func(a *courseModels.Assessment) error {
		if q < 0 || q >= len(a.Questions) {
			return ErrOutOfRange
		}
		a.Questions[q].Answers = append(a.Questions[q].Answers, courseModels.Answer{Text: text, Correct: correct})
		return nil
	})
}

func (e *Editor) SetAnswer(q, ans int, text string, correct bool) error {
	return e.Edit(func(a *courseModels.Assessment) error {
		if q < 0 || q >= len(a.Questions) || ans < 0 || ans >= len(a.Questions[q].Answers) {
			return ErrOutOfRange
		}
		a.Questions[q].Answers[ans].Text = text
		a.Questions[q].Answers[ans].Correct = correct
		return nil
	})
}

// DeleteQuestion flags a stored question for deletion; an unsaved one is
// dropped at once. Indexes refer to Snapshot.
func (e *Editor) DeleteQuestion(q int) error {
	return e.Edit(func(a *courseModels.Assessment) error {
		if q < 0 || q >= len(a.Questions) {
			return ErrOutOfRange
		}
		if a.Questions[q].ID == 0 {
			a.Questions = append(a.Questions[:q], a.Questions[q+1:]...)
			return nil
		}
		a.Questions[q].Delete = true
		return nil
	})
}

// DeleteAnswer flags a stored answer for deletion. It disappears from Visible
// immediately and is sent with delete=true on the next save.
func (e *Editor) DeleteAnswer(q, ans int) error {
	return e.Edit(func(a *courseModels.Assessment) error {
		if q < 0 || q >= len(a.Questions) || ans < 0 || ans >= len(a.Questions[q].Answers) {
			return ErrOutOfRange
		}
		answers := a.Questions[q].Answers
		if answers[ans].ID == 0 {
			a.Questions[q].Answers = append(answers[:ans], answers[ans+1:]...)
			return nil
		}
		answers[ans].Delete = true
		return nil
	})
}

func (e *Editor) fire() {
	e.mu.Lock()
	if e.closed || e.state != Dirty {
		e.mu.Unlock()
		return
	}
	if e.inflight != nil {
		// a save is running; try again once it has had time to land
		e.timer = e.after(e.delay, e.fire)
		e.mu.Unlock()
		return
	}
	draft, rev, done := e.beginSaveLocked()
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = e.save(ctx, draft, rev, done)
}

func (e *Editor) beginSaveLocked() (*courseModels.Assessment, uint64, chan struct{}) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.stampKeysLocked()
	draft := cloneAssessment(&e.doc)
	done := make(chan struct{})
	e.inflight = done
	e.state = Saving
	return &draft, e.rev, done
}

func (e *Editor) save(ctx context.Context, draft *courseModels.Assessment, rev uint64, done chan struct{}) error {
	saved, err := e.saver.SaveAssessment(ctx, e.moduleID, draft)

	e.mu.Lock()
	e.inflight = nil
	close(done)
	if err != nil {
		e.err = err
		e.state = Dirty
		onError := e.onError
		e.mu.Unlock()

		e.log.Warn("assessment autosave failed", "module_id", e.moduleID, "error", err)
		if onError != nil {
			onError(err)
		}
		return err
	}

	e.err = nil
	if e.rev == rev {
		e.doc = cloneAssessment(saved)
		e.state = Clean
	} else {
		// edits landed mid-save; they stay local and their timer is armed
		e.mergeLocked(draft, saved)
		e.state = Dirty
	}
	onSaved := e.onSaved
	e.mu.Unlock()

	e.log.Debug("assessment autosaved", "module_id", e.moduleID, "questions", len(saved.Questions))
	if onSaved != nil {
		onSaved(saved)
	}
	return nil
}

// stampKeysLocked gives every entry a local identity so the echo of a save can
// be matched back to entries that were edited in the meantime.
func (e *Editor) stampKeysLocked() {
	for i := range e.doc.Questions {
		q := &e.doc.Questions[i]
		if q.LocalKey == 0 {
			e.nextKey++
			q.LocalKey = e.nextKey
		}
		for j := range q.Answers {
			if q.Answers[j].LocalKey == 0 {
				e.nextKey++
				q.Answers[j].LocalKey = e.nextKey
			}
		}
	}
}

// mergeLocked copies the IDs the server assigned to draft entries into the
// local document and drops flagged entries the server already removed. The
// echo lists the draft's unflagged entries in draft order.
func (e *Editor) mergeLocked(draft, saved *courseModels.Assessment) {
	ids := make(map[uint64]uint)
	gone := make(map[uint64]bool)
	next := 0
	for _, dq := range draft.Questions {
		if dq.Delete {
			gone[dq.LocalKey] = true
			for _, da := range dq.Answers {
				gone[da.LocalKey] = true
			}
			continue
		}
		if next >= len(saved.Questions) {
			continue
		}
		sq := saved.Questions[next]
		next++
		ids[dq.LocalKey] = sq.ID

		n := 0
		for _, da := range dq.Answers {
			if da.Delete {
				gone[da.LocalKey] = true
				continue
			}
			if n < len(sq.Answers) {
				ids[da.LocalKey] = sq.Answers[n].ID
				n++
			}
		}
	}

	questions := e.doc.Questions[:0]
	for _, q := range e.doc.Questions {
		if gone[q.LocalKey] {
			if q.Delete {
				continue
			}
			// unflagged after the server removed it; store it again
			q.ID = 0
		}
		if id, ok := ids[q.LocalKey]; ok {
			q.ID = id
		}
		answers := q.Answers[:0]
		for _, a := range q.Answers {
			if gone[a.LocalKey] || (q.ID == 0 && a.ID != 0) {
				if a.Delete {
					continue
				}
				a.ID = 0
			}
			if id, ok := ids[a.LocalKey]; ok {
				a.ID = id
			}
			answers = append(answers, a)
		}
		q.Answers = answers
		questions = append(questions, q)
	}
	e.doc.Questions = questions
}

// Flush saves pending edits now, waiting for an in-flight save first.
func (e *Editor) Flush(ctx context.Context) error {
	for {
		e.mu.Lock()
		if done := e.inflight; done != nil {
			e.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if e.state != Dirty {
			e.mu.Unlock()
			return nil
		}
		draft, rev, done := e.beginSaveLocked()
		e.mu.Unlock()
		return e.save(ctx, draft, rev, done)
	}
}

// Close stops accepting edits and flushes anything still pending, so an edit
// made just before leaving the editor is not lost.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return e.Flush(ctx)
}

func cloneAssessment(a *courseModels.Assessment) courseModels.Assessment {
	out := *a
	out.Questions = make([]courseModels.Question, len(a.Questions))
	for i, q := range a.Questions {
		q.Answers = append([]courseModels.Answer(nil), q.Answers...)
		out.Questions[i] = q
	}
	return out
}

type answerBody struct {
	ID      uint   `json:"ID,omitempty"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Delete  bool   `json:"delete,omitempty"`
}

type questionBody struct {
	ID      uint         `json:"ID,omitempty"`
	Text    string       `json:"text"`
	Answers []answerBody `json:"answers"`
	Delete  bool         `json:"delete,omitempty"`
}

type assessmentBody struct {
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Duration          int            `json:"duration"`
	NumberOfQuestions int            `json:"numberOfQuestions"`
	Questions         []questionBody `json:"questions"`
}

func saveBody(a *courseModels.Assessment) assessmentBody {
	body := assessmentBody{
		Title:             a.Title,
		Description:       a.Description,
		Duration:          a.Duration,
		NumberOfQuestions: a.NumberOfQuestions,
		Questions:         make([]questionBody, 0, len(a.Questions)),
	}
	for _, q := range a.Questions {
		qb := questionBody{ID: q.ID, Text: q.Text, Delete: q.Delete, Answers: make([]answerBody, 0, len(q.Answers))}
		for _, ans := range q.Answers {
			qb.Answers = append(qb.Answers, answerBody{ID: ans.ID, Text: ans.Text, Correct: ans.Correct, Delete: ans.Delete})
		}
		body.Questions = append(body.Questions, qb)
	}
	return body
}
