package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"studysync_backend/pkg/api"
	"studysync_backend/pkg/attempt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedBackend struct {
	submitted api.SubmitAttemptRequest
}

func (b *scriptedBackend) StartAttempt(ctx context.Context, quizID string) (*api.StartAttemptResponse, error) {
	return &api.StartAttemptResponse{
		Attempt: api.Attempt{ID: "att-1", QuizID: quizID},
		Quiz: api.Quiz{
			ID:    quizID,
			Title: "Cell biology",
			Questions: []api.Question{
				{ID: "q1", Type: api.MultipleChoice, Question: "Powerhouse of the cell?", Options: []string{"Nucleus", "Mitochondria"}, Order: 1},
				{ID: "q2", Type: api.ShortAnswer, Question: "Plant cell wall material?", Order: 2},
			},
		},
	}, nil
}

func (b *scriptedBackend) SubmitAttempt(ctx context.Context, quizID, attemptID string, req api.SubmitAttemptRequest) (*api.SubmitAttemptResponse, error) {
	b.submitted = req
	return &api.SubmitAttemptResponse{Result: api.AttemptResult{
		AttemptID: attemptID,
		Score:     50,
		Answers: []api.AnswerResult{
			{QuestionID: "q1", UserAnswer: "Mitochondria", IsCorrect: true, CorrectAnswer: "Mitochondria", PointsEarned: 1},
			{QuestionID: "q2", UserAnswer: "chitin", CorrectAnswer: "cellulose", Explanation: "Fungi use chitin."},
		},
		Summary: api.ResultSummary{Total: 2, Correct: 1, Incorrect: 1},
	}}, nil
}

func newReviewSession(t *testing.T) *attempt.Session {
	t.Helper()
	s := attempt.NewSession(&scriptedBackend{}, "quiz-1")
	t.Cleanup(s.Close)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Answer("q1", "Mitochondria"))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	return s
}

func TestRun_ReviewAfterSubmit(t *testing.T) {
	backend := &scriptedBackend{}
	in := strings.NewReader("2\nchitin\n:s\nanother\n:r\n:n\n:q\n")
	var out bytes.Buffer

	err := run(context.Background(), backend, "quiz-1", zap.NewNop(), in, &out)
	require.NoError(t, err)

	require.Len(t, backend.submitted.Answers, 2)
	assert.Equal(t, "Mitochondria", backend.submitted.Answers[0].UserAnswer)

	text := out.String()
	assert.Contains(t, text, "score 50% (not passed), 1/2 correct")
	assert.Contains(t, text, reviewHelp)
	// 提交后不能再修改答案
	assert.Contains(t, text, "attempt is over")

	review := text[strings.LastIndex(text, reviewHelp):]
	assert.Contains(t, review, "[1/2] Powerhouse of the cell?")
	assert.Contains(t, review, `✓ correct: "Mitochondria"`)
	assert.Contains(t, review, "[2/2] Plant cell wall material?")
	assert.Contains(t, review, `x your answer: "chitin", correct: "cellulose"`)
	assert.Contains(t, review, "Fungi use chitin.")
}

func TestRun_StopsOnCancel(t *testing.T) {
	// 输入端一直没有数据
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, &scriptedBackend{}, "quiz-1", zap.NewNop(), pr, io.Discard)
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestHandleReview(t *testing.T) {
	s := newReviewSession(t)

	_, err := handleReview(s, ":n")
	assert.Error(t, err, "navigation needs :r first")

	done, err := handleReview(s, ":r")
	require.NoError(t, err)
	assert.False(t, done)

	_, err = handleReview(s, ":g 2")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentIndex())

	_, err = handleReview(s, "new answer")
	assert.Error(t, err)

	done, err = handleReview(s, ":q")
	require.NoError(t, err)
	assert.True(t, done)
}
