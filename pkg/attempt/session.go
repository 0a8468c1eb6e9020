// Package attempt implements the client side of a single timed quiz attempt:
// navigation, answer capture, flagging, countdown and submission. Grading is
// never done here; the session only stores and exposes the backend's verdict.
package attempt

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"studysync_backend/pkg/api"

	"go.uber.org/zap"
)

// DefaultTimeLimit applies when the quiz declares no time limit.
const DefaultTimeLimit = 30 * time.Minute

type State int

const (
	StateLoading State = iota
	StateInProgress
	StateSubmitting
	StateCompleted
	StateReviewing
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateReviewing:
		return "reviewing"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Backend is the subset of the REST API an attempt needs.
// *apiclient.Client satisfies it.
type Backend interface {
	StartAttempt(ctx context.Context, quizID string) (*api.StartAttemptResponse, error)
	SubmitAttempt(ctx context.Context, quizID, attemptID string, req api.SubmitAttemptRequest) (*api.SubmitAttemptResponse, error)
}

type Option func(*Session)

// WithClock replaces time.Now for elapsed-time computation.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger attaches a logger; sessions are silent by default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithManualTicks disables the internal ticker; the caller drives the
// countdown through Tick.
func WithManualTicks() Option {
	return func(s *Session) { s.tickInterval = 0 }
}

// WithTickInterval overrides the one second tick, mostly for demos.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickInterval = d }
}

// Session is owned by whoever drives one quiz attempt. All methods are safe
// to call from the countdown goroutine and the caller concurrently.
type Session struct {
	mu      sync.Mutex
	backend Backend
	quizID  string
	opts    []Option

	state     State
	quiz      *api.Quiz
	attemptID string
	current   int
	answers   map[string]string
	flagged   map[string]struct{}
	submitted bool
	startedAt time.Time
	timeSpent int
	result    *api.AttemptResult
	byID      map[string]api.AnswerResult
	err       error
	closed    bool

	countdown    *Countdown
	timerCtx     context.Context
	timerCancel  context.CancelFunc
	tickInterval time.Duration
	now          func() time.Time
	log          *zap.Logger
}

func NewSession(backend Backend, quizID string, opts ...Option) *Session {
	s := &Session{
		backend:      backend,
		quizID:       quizID,
		opts:         opts,
		state:        StateLoading,
		answers:      make(map[string]string),
		flagged:      make(map[string]struct{}),
		tickInterval: time.Second,
		now:          time.Now,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timerCtx, s.timerCancel = context.WithCancel(context.Background())
	return s
}

// Start asks the backend for a new attempt. On failure the session enters
// StateError; recovery is a new session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateLoading {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	resp, err := s.backend.StartAttempt(ctx, s.quizID)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err != nil {
		s.state = StateError
		s.err = err
		s.log.Warn("start attempt failed", zap.String("quizId", s.quizID), zap.Error(err))
		return err
	}

	quiz := resp.Quiz
	quiz.Questions = append([]api.Question(nil), resp.Quiz.Questions...)
	sort.SliceStable(quiz.Questions, func(i, j int) bool {
		return quiz.Questions[i].Order < quiz.Questions[j].Order
	})
	s.quiz = &quiz
	s.attemptID = resp.Attempt.ID
	s.startedAt = s.now()
	s.state = StateInProgress
	s.err = nil

	s.countdown = NewCountdown(timeLimitSeconds(quiz.TimeLimit), s.expire)
	if s.tickInterval > 0 {
		s.countdown.Start(s.timerCtx, s.tickInterval)
	}
	s.log.Debug("attempt started",
		zap.String("quizId", s.quizID),
		zap.String("attemptId", s.attemptID),
		zap.Int("questions", len(quiz.Questions)),
	)
	return nil
}

func timeLimitSeconds(minutes *int) int {
	if minutes == nil || *minutes <= 0 {
		return int(DefaultTimeLimit / time.Second)
	}
	return *minutes * 60
}

func (s *Session) expire() {
	s.log.Info("time limit reached, submitting", zap.String("attemptId", s.AttemptID()))
	if _, err := s.Submit(s.timerCtx); err != nil {
		s.log.Warn("automatic submission failed", zap.Error(err))
	}
}

// Tick advances the countdown by one second when ticks are manual.
func (s *Session) Tick() int {
	s.mu.Lock()
	cd := s.countdown
	s.mu.Unlock()
	if cd == nil {
		return 0
	}
	return cd.Tick()
}

func (s *Session) questionExists(id string) bool {
	for _, q := range s.quiz.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Answer records value for the question, replacing any earlier answer.
// After submission it is a no-op.
func (s *Session) Answer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateLoading, StateError:
		return ErrNotStarted
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateCompleted, StateReviewing:
		return nil
	}
	if !s.questionExists(questionID) {
		return ErrUnknownQuestion
	}
	s.answers[questionID] = value
	return nil
}

// ToggleFlag flips the flag on a question and reports the new membership.
// Flags are never submitted.
func (s *Session) ToggleFlag(questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil {
		return false, ErrNotStarted
	}
	if !s.questionExists(questionID) {
		return false, ErrUnknownQuestion
	}
	_, flagged := s.flagged[questionID]
	if s.state != StateInProgress {
		return flagged, nil
	}
	if flagged {
		delete(s.flagged, questionID)
		return false, nil
	}
	s.flagged[questionID] = struct{}{}
	return true, nil
}

// Navigate moves the current index by delta, clamped to the question range.
func (s *Session) Navigate(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil || (s.state != StateInProgress && s.state != StateReviewing) {
		return s.current
	}
	s.current = s.clamp(s.current + delta)
	return s.current
}

func (s *Session) Next() int { return s.Navigate(1) }

func (s *Session) Prev() int { return s.Navigate(-1) }

// GoTo jumps to index, clamped to the question range.
func (s *Session) GoTo(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil || (s.state != StateInProgress && s.state != StateReviewing) {
		return s.current
	}
	s.current = s.clamp(index)
	return s.current
}

func (s *Session) clamp(i int) int {
	last := len(s.quiz.Questions) - 1
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Submit sends the captured answers and the elapsed seconds. Only one call
// reaches the backend at a time; a failed submission leaves the attempt
// in progress.
func (s *Session) Submit(ctx context.Context) (*api.AttemptResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	switch s.state {
	case StateLoading, StateError:
		s.mu.Unlock()
		return nil, ErrNotStarted
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateCompleted, StateReviewing:
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}

	req := api.SubmitAttemptRequest{Answers: make([]api.AnswerSubmission, 0, len(s.answers))}
	for _, q := range s.quiz.Questions {
		if v, ok := s.answers[q.ID]; ok {
			req.Answers = append(req.Answers, api.AnswerSubmission{QuestionID: q.ID, UserAnswer: v})
		}
	}
	elapsed := int(math.Round(s.now().Sub(s.startedAt).Seconds()))
	if elapsed < 0 {
		elapsed = 0
	}
	req.TimeSpent = elapsed
	s.state = StateSubmitting
	quizID, attemptID := s.quizID, s.attemptID
	s.mu.Unlock()

	resp, err := s.backend.SubmitAttempt(ctx, quizID, attemptID, req)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err != nil {
		s.state = StateInProgress
		s.err = err
		s.log.Warn("submit attempt failed", zap.String("attemptId", attemptID), zap.Error(err))
		return nil, err
	}

	result := resp.Result
	s.result = &result
	s.byID = make(map[string]api.AnswerResult, len(result.Answers))
	for _, a := range result.Answers {
		s.byID[a.QuestionID] = a
	}
	s.timeSpent = elapsed
	s.submitted = true
	s.state = StateCompleted
	s.err = nil
	if s.countdown != nil {
		s.countdown.Stop()
	}
	return &result, nil
}

// Review switches a completed attempt into read-only traversal from the
// first question.
func (s *Session) Review() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted && s.state != StateReviewing {
		return ErrNotCompleted
	}
	s.state = StateReviewing
	s.current = 0
	return nil
}

// Retake discards this session and returns a fresh one for the same quiz.
// The caller must Start it.
func (s *Session) Retake() *Session {
	s.Close()
	return NewSession(s.backend, s.quizID, s.opts...)
}

// Close tears the session down. Results of calls still in flight are
// dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.countdown != nil {
		s.countdown.Stop()
	}
	s.timerCancel()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last start or submit error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) AttemptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptID
}

// Quiz returns the quiz definition, or nil before Start succeeds.
func (s *Session) Quiz() *api.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) CurrentQuestion() (api.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil || len(s.quiz.Questions) == 0 {
		return api.Question{}, false
	}
	return s.quiz.Questions[s.current], true
}

func (s *Session) AnswerFor(questionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[questionID]
	return v, ok
}

// Answers returns a copy of the captured answers.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *Session) IsFlagged(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.flagged[questionID]
	return ok
}

// Flagged returns the flagged question ids in sorted order.
func (s *Session) Flagged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.flagged))
	for id := range s.flagged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AnsweredCount counts non-empty answers.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answeredLocked()
}

func (s *Session) answeredLocked() int {
	n := 0
	for _, v := range s.answers {
		if v != "" {
			n++
		}
	}
	return n
}

// Progress is the answered percentage, 0 for an empty quiz.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil || len(s.quiz.Questions) == 0 {
		return 0
	}
	return float64(s.answeredLocked()) / float64(len(s.quiz.Questions)) * 100
}

// Remaining returns the countdown's seconds left.
func (s *Session) Remaining() int {
	s.mu.Lock()
	cd := s.countdown
	s.mu.Unlock()
	if cd == nil {
		return 0
	}
	return cd.Remaining()
}

func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Session) TimeSpent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeSpent
}

func (s *Session) Result() *api.AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ResultFor returns the backend's verdict for one question.
func (s *Session) ResultFor(questionID string) (api.AnswerResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[questionID]
	return r, ok
}
