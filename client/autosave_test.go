package client

import (
	"context"
	"errors"
	courseModels "fillop/models/course"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTimer struct {
	owner   *timers
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// timers replaces time.AfterFunc so tests decide when the countdown ends.
type timers struct {
	mu  sync.Mutex
	all []*fakeTimer
}

func (ts *timers) after(_ time.Duration, f func()) stopper {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &fakeTimer{owner: ts, f: f}
	ts.all = append(ts.all, t)
	return t
}

func (ts *timers) armed() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	n := 0
	for _, t := range ts.all {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fire runs every armed timer and reports how many ran.
func (ts *timers) fire() int {
	ts.mu.Lock()
	var due []*fakeTimer
	for _, t := range ts.all {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	ts.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// fakeServer stores drafts the way the API does: new rows get IDs and flagged
// rows are dropped.
type fakeServer struct {
	mu     sync.Mutex
	nextID uint
	drafts []courseModels.Assessment
	err    error
	gate   chan struct{}
	inside chan struct{}
}

func (s *fakeServer) SaveAssessment(_ context.Context, moduleID uint, draft *courseModels.Assessment) (*courseModels.Assessment, error) {
	if s.inside != nil {
		s.inside <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = append(s.drafts, cloneAssessment(draft))
	if s.err != nil {
		return nil, s.err
	}

	echo := courseModels.Assessment{ModuleID: moduleID, Title: draft.Title}
	for _, q := range draft.Questions {
		if q.Delete {
			continue
		}
		if q.ID == 0 {
			s.nextID++
			q.ID = s.nextID
		}
		var answers []courseModels.Answer
		for _, a := range q.Answers {
			if a.Delete {
				continue
			}
			if a.ID == 0 {
				s.nextID++
				a.ID = s.nextID
			}
			answers = append(answers, a)
		}
		q.Answers = answers
		echo.Questions = append(echo.Questions, q)
	}
	echo.NumberOfQuestions = len(echo.Questions)
	return &echo, nil
}

func (s *fakeServer) saved() []courseModels.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]courseModels.Assessment(nil), s.drafts...)
}

func newTestEditor(srv Saver, initial *courseModels.Assessment, opts ...EditorOption) (*Editor, *timers) {
	ts := &timers{}
	e := NewEditor(srv, 7, initial, opts...)
	e.after = ts.after
	return e, ts
}

func storedQuiz() *courseModels.Assessment {
	return &courseModels.Assessment{
		Title: "Quiz",
		Questions: []courseModels.Question{{
			Model: gorm.Model{ID: 100},
			Text:  "Pick one",
			Answers: []courseModels.Answer{
				{Model: gorm.Model{ID: 101}, Text: "right", Correct: true},
				{Model: gorm.Model{ID: 102}, Text: "wrong"},
			},
		}},
	}
}

func TestEditorDebouncesEdits(t *testing.T) {
	srv := &fakeServer{nextID: 500}
	e, ts := newTestEditor(srv, &courseModels.Assessment{Title: "Quiz"})

	require.NoError(t, e.AddQuestion("First"))
	require.NoError(t, e.AddAnswer(0, "yes", true))
	require.NoError(t, e.SetQuestionText(0, "First question"))

	assert.Equal(t, Dirty, e.State())
	assert.Equal(t, 1, ts.armed(), "each edit restarts a single countdown")
	assert.Empty(t, srv.saved())

	assert.Equal(t, 1, ts.fire())
	drafts := srv.saved()
	require.Len(t, drafts, 1)
	require.Len(t, drafts[0].Questions, 1)
	assert.Equal(t, "First question", drafts[0].Questions[0].Text)
	assert.Len(t, drafts[0].Questions[0].Answers, 1)

	assert.Equal(t, Clean, e.State())
	snap := e.Snapshot()
	require.Len(t, snap.Questions, 1)
	assert.Equal(t, uint(501), snap.Questions[0].ID, "server IDs replace local placeholders")
	assert.Equal(t, uint(502), snap.Questions[0].Answers[0].ID)

	assert.Zero(t, ts.fire(), "nothing left to save")
}

func TestEditorSendsDeletionFlags(t *testing.T) {
	srv := &fakeServer{}
	e, ts := newTestEditor(srv, storedQuiz())

	require.NoError(t, e.DeleteAnswer(0, 1))
	visible := e.Visible()
	require.Len(t, visible.Questions[0].Answers, 1)
	assert.Equal(t, "right", visible.Questions[0].Answers[0].Text)
	assert.Len(t, e.Snapshot().Questions[0].Answers, 2, "flagged answer stays until saved")

	ts.fire()
	drafts := srv.saved()
	require.Len(t, drafts, 1)
	body := saveBody(&drafts[0])
	require.Len(t, body.Questions[0].Answers, 2)
	assert.False(t, body.Questions[0].Answers[0].Delete)
	assert.True(t, body.Questions[0].Answers[1].Delete)
	assert.Equal(t, uint(102), body.Questions[0].Answers[1].ID)

	assert.Len(t, e.Snapshot().Questions[0].Answers, 1, "echo no longer carries the deleted answer")

	// Unsaved entries are dropped locally instead of being flagged.
	require.NoError(t, e.AddQuestion("scratch"))
	require.NoError(t, e.DeleteQuestion(1))
	assert.Len(t, e.Snapshot().Questions, 1)

	require.NoError(t, e.DeleteQuestion(0))
	assert.Empty(t, e.Visible().Questions)
	assert.True(t, e.Snapshot().Questions[0].Delete)

	assert.ErrorIs(t, e.DeleteQuestion(5), ErrOutOfRange)
	assert.ErrorIs(t, e.SetAnswer(0, 9, "x", false), ErrOutOfRange)
}

func TestEditorKeepsEditsWhenSaveFails(t *testing.T) {
	boom := errors.New("server down")
	srv := &fakeServer{err: boom}
	var reported []error
	e, ts := newTestEditor(srv, storedQuiz(), WithErrorHandler(func(err error) { reported = append(reported, err) }))

	require.NoError(t, e.SetQuestionText(0, "Pick the right one"))
	ts.fire()

	assert.Equal(t, Dirty, e.State())
	assert.ErrorIs(t, e.Err(), boom)
	require.Len(t, reported, 1)
	assert.Equal(t, "Pick the right one", e.Snapshot().Questions[0].Text)

	srv.mu.Lock()
	srv.err = nil
	srv.mu.Unlock()

	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, Clean, e.State())
	assert.NoError(t, e.Err())
	assert.Len(t, srv.saved(), 2)
}

func TestEditorCloseFlushes(t *testing.T) {
	srv := &fakeServer{}
	var echoes int
	e, ts := newTestEditor(srv, storedQuiz(), WithSavedHandler(func(*courseModels.Assessment) { echoes++ }))

	require.NoError(t, e.AddQuestion("Last minute"))
	require.NoError(t, e.Close(context.Background()))

	drafts := srv.saved()
	require.Len(t, drafts, 1)
	assert.Len(t, drafts[0].Questions, 2)
	assert.Equal(t, 1, echoes)
	assert.Equal(t, Clean, e.State())

	assert.ErrorIs(t, e.AddQuestion("too late"), ErrEditorClosed)
	ts.fire()
	assert.Len(t, srv.saved(), 1, "stale countdown does nothing after Close")
}

func TestEditorEditDuringSave(t *testing.T) {
	srv := &fakeServer{gate: make(chan struct{}), inside: make(chan struct{}, 4)}
	e, ts := newTestEditor(srv, &courseModels.Assessment{Title: "Quiz"})

	require.NoError(t, e.AddQuestion("one"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		ts.fire()
	}()
	<-srv.inside
	assert.Equal(t, Saving, e.State())

	require.NoError(t, e.AddQuestion("two"))
	assert.Equal(t, Dirty, e.State())

	srv.gate <- struct{}{}
	<-done

	assert.Equal(t, Dirty, e.State(), "newer edits keep the editor dirty")
	snap := e.Snapshot()
	require.Len(t, snap.Questions, 2, "echo does not overwrite the newer edit")
	assert.Equal(t, uint(1), snap.Questions[0].ID, "saved question keeps its new ID")
	assert.Equal(t, "two", snap.Questions[1].Text)
	assert.Zero(t, snap.Questions[1].ID)

	close(srv.gate)
	assert.Equal(t, 1, ts.fire())
	<-srv.inside

	drafts := srv.saved()
	require.Len(t, drafts, 2)
	require.Len(t, drafts[1].Questions, 2)
	assert.Equal(t, uint(1), drafts[1].Questions[0].ID, "not created a second time")
	assert.Equal(t, Clean, e.State())
}

func TestEditorMergesEchoAfterOverlappingSave(t *testing.T) {
	srv := &fakeServer{nextID: 200, gate: make(chan struct{}), inside: make(chan struct{}, 4)}
	e, ts := newTestEditor(srv, storedQuiz())

	require.NoError(t, e.DeleteAnswer(0, 1))
	require.NoError(t, e.AddQuestion("Added"))
	require.NoError(t, e.AddAnswer(1, "sure", true))

	done := make(chan struct{})
	go func() {
		defer close(done)
		ts.fire()
	}()
	<-srv.inside

	require.NoError(t, e.SetQuestionText(0, "Pick exactly one"))
	require.NoError(t, e.AddAnswer(1, "maybe", false))
	srv.gate <- struct{}{}
	<-done

	assert.Equal(t, Dirty, e.State())
	snap := e.Snapshot()
	require.Len(t, snap.Questions, 2)
	assert.Equal(t, "Pick exactly one", snap.Questions[0].Text)
	require.Len(t, snap.Questions[0].Answers, 1, "answer the server removed is gone")
	assert.Equal(t, uint(101), snap.Questions[0].Answers[0].ID)
	assert.Equal(t, uint(201), snap.Questions[1].ID)
	require.Len(t, snap.Questions[1].Answers, 2)
	assert.Equal(t, uint(202), snap.Questions[1].Answers[0].ID)
	assert.Zero(t, snap.Questions[1].Answers[1].ID, "added after the draft was taken")

	close(srv.gate)
	require.NoError(t, e.Flush(context.Background()))
	<-srv.inside
	assert.Equal(t, Clean, e.State())

	drafts := srv.saved()
	require.Len(t, drafts, 2)
	next := saveBody(&drafts[1])
	require.Len(t, next.Questions, 2)
	assert.Len(t, next.Questions[0].Answers, 1)
	assert.False(t, next.Questions[0].Answers[0].Delete)
	assert.Equal(t, uint(201), next.Questions[1].ID)
	assert.Equal(t, "Pick exactly one", next.Questions[0].Text)
}

func TestEditorRecreatesEntryUnflaggedDuringSave(t *testing.T) {
	srv := &fakeServer{gate: make(chan struct{}), inside: make(chan struct{}, 4)}
	e, ts := newTestEditor(srv, storedQuiz())

	require.NoError(t, e.DeleteQuestion(0))
	done := make(chan struct{})
	go func() {
		defer close(done)
		ts.fire()
	}()
	<-srv.inside

	require.NoError(t, e.Edit(func(a *courseModels.Assessment) error {
		a.Questions[0].Delete = false
		return nil
	}))
	srv.gate <- struct{}{}
	<-done

	snap := e.Snapshot()
	require.Len(t, snap.Questions, 1)
	assert.Zero(t, snap.Questions[0].ID, "server row is gone, so it is sent as new")
	for _, a := range snap.Questions[0].Answers {
		assert.Zero(t, a.ID)
	}
	close(srv.gate)
}
