package service

import (
	"errors"
	"testing"
	"time"

	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(id string, t model.QuestionType, correct string, points int) model.Question {
	q := model.Question{Type: t, CorrectAnswer: correct, Points: points, Prompt: id}
	q.ID = id
	return q
}

func TestGrade(t *testing.T) {
	questions := []model.Question{
		question("q1", model.MultipleChoice, "Mitochondria", 1),
		question("q2", model.TrueFalse, "True", 1),
		question("q3", model.ShortAnswer, "photo synthesis", 2),
		question("q4", model.Essay, "", 4),
	}

	t.Run("mixed answers", func(t *testing.T) {
		g := Grade(questions, map[string]string{
			"q1": "  mitochondria ",
			"q2": "false",
			"q3": "Photo   Synthesis",
			"q4": "A long essay",
		}, 70)

		assert.Equal(t, 4, g.Summary.Total)
		assert.Equal(t, 2, g.Summary.Correct)
		assert.Equal(t, 2, g.Summary.Incorrect)
		// 3 of 8 points
		assert.Equal(t, 38, g.Score)
		assert.False(t, g.Passed)
		require.Len(t, g.Answers, 4)
		require.Len(t, g.Results, 4)
		assert.True(t, g.Results[3].NeedsReview)
		assert.Equal(t, 0, g.Results[3].PointsEarned)
		assert.Equal(t, "True", g.Results[1].CorrectAnswer)
	})

	t.Run("no answers", func(t *testing.T) {
		g := Grade(questions, map[string]string{}, 70)
		assert.Equal(t, 0, g.Summary.Correct)
		assert.Equal(t, 4, g.Summary.Incorrect)
		assert.Equal(t, 0, g.Score)
		assert.Empty(t, g.Answers)
		assert.Len(t, g.Results, 4)
		assert.False(t, g.Results[3].NeedsReview)
	})

	t.Run("empty answer never matches", func(t *testing.T) {
		qs := []model.Question{question("q1", model.ShortAnswer, " ", 1)}
		g := Grade(qs, map[string]string{"q1": ""}, 0)
		assert.False(t, g.Results[0].IsCorrect)
		assert.Len(t, g.Answers, 1)
	})

	t.Run("zero total points", func(t *testing.T) {
		qs := []model.Question{question("q1", model.MultipleChoice, "a", 0)}
		g := Grade(qs, map[string]string{"q1": "a"}, 0)
		assert.Equal(t, 0, g.Score)
		assert.True(t, g.Passed)
		assert.Equal(t, 1, g.Summary.Correct)
	})

	t.Run("all correct passes", func(t *testing.T) {
		g := Grade(questions[:2], map[string]string{"q1": "mitochondria", "q2": "TRUE"}, 70)
		assert.Equal(t, 100, g.Score)
		assert.True(t, g.Passed)
	})
}

func TestDifficulty(t *testing.T) {
	intp := func(v int) *int { return &v }
	tests := []struct {
		name      string
		timeLimit *int
		count     int
		want      string
	}{
		{"no questions", intp(1), 0, "easy"},
		{"default limit, few questions", nil, 10, "easy"},
		{"default limit, many questions", nil, 50, "hard"},
		{"medium pace", intp(10), 10, "medium"},
		{"tight", intp(1), 3, "hard"},
		{"zero limit uses default", intp(0), 25, "medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Difficulty(tt.timeLimit, tt.count))
		})
	}
}

func TestBuildQuestions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		qs, err := buildQuestions([]api.QuestionInput{
			{Type: api.TrueFalse, Question: "Sky is blue", CorrectAnswer: "True"},
			{Type: api.Essay, Question: "Explain osmosis"},
		})
		require.NoError(t, err)
		require.Len(t, qs, 2)
		assert.Equal(t, []string{"True", "False"}, qs[0].OptionList())
		assert.Equal(t, 1, qs[0].Points)
		assert.Equal(t, 2, qs[1].Order)
		assert.Nil(t, qs[1].OptionList())
	})

	t.Run("rejects", func(t *testing.T) {
		cases := [][]api.QuestionInput{
			{{Type: "MATCHING", Question: "x", CorrectAnswer: "a"}},
			{{Type: api.MultipleChoice, Question: "x", Options: []string{"a"}, CorrectAnswer: "a"}},
			{{Type: api.ShortAnswer, Question: "x"}},
			{{Type: api.ShortAnswer, Question: "  ", CorrectAnswer: "a"}},
		}
		for _, in := range cases {
			_, err := buildQuestions(in)
			assert.True(t, errors.Is(err, util.ErrInvalidQuestion), "%+v", in)
		}
	})
}

func TestToAPIQuizHidesAnswers(t *testing.T) {
	q := &model.Quiz{Title: "Bio", PassingScore: 70}
	q.Questions = []model.Question{question("q1", model.MultipleChoice, "secret", 1)}
	q.Questions[0].Options = []byte(`["secret","other"]`)
	q.Questions[0].Explanation = "because"

	out := ToAPIQuiz(q, 1)
	require.Len(t, out.Questions, 1)
	assert.Equal(t, []string{"secret", "other"}, out.Questions[0].Options)
	assert.Equal(t, "easy", out.Difficulty)
	assert.Equal(t, 1, out.QuestionCount)
}

func expectQuizLoad(mock sqlmock.Sqlmock, questions *sqlmock.Rows) {
	mock.ExpectQuery("SELECT \\* FROM `quizzes`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "passing_score"}).
			AddRow("quiz-1", "user-1", "Cells", 70))
	mock.ExpectQuery("SELECT \\* FROM `questions`").WillReturnRows(questions)
}

func TestQuizService_UpdateKeepsQuestionIDs(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewQuizService(repository.NewQuizRepository(db), nil, nil)

	expectQuizLoad(mock, sqlmock.NewRows([]string{"id", "quiz_id", "type", "prompt", "correct_answer", "points", "order_index"}).
		AddRow("q1", "quiz-1", "SHORT_ANSWER", "Powerhouse of the cell?", "mitochondria", 1, 1).
		AddRow("q2", "quiz-1", "SHORT_ANSWER", "Cell wall material?", "cellulose", 1, 2))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `quizzes` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `id` FROM `questions`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("q1").AddRow("q2"))
	mock.ExpectExec("UPDATE `questions` SET .*`prompt`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `questions`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `questions` SET `deleted_at`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	quiz, err := svc.Update("user-1", "quiz-1", api.QuizInput{
		Title: "Cells, revised",
		Questions: []api.QuestionInput{
			{ID: "q1", Type: api.ShortAnswer, Question: "Which organelle makes ATP?", CorrectAnswer: "mitochondria"},
			{Type: api.TrueFalse, Question: "Plant cells have chloroplasts", CorrectAnswer: "True"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "q1", quiz.Questions[0].ID)
	assert.Equal(t, "Which organelle makes ATP?", quiz.Questions[0].Prompt)
	assert.NotEmpty(t, quiz.Questions[1].ID)
	assert.NotEqual(t, "q2", quiz.Questions[1].ID)
}

func TestQuizService_UpdateRequiresOwner(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewQuizService(repository.NewQuizRepository(db), nil, nil)
	expectQuizLoad(mock, sqlmock.NewRows([]string{"id", "quiz_id"}))

	_, err := svc.Update("user-2", "quiz-1", api.QuizInput{Title: "mine now"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizService_GetAttemptResult(t *testing.T) {
	t.Run("uses stored grading", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewQuizService(repository.NewQuizRepository(db), nil, nil)

		mock.ExpectQuery("SELECT \\* FROM `quiz_attempts`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "user_id", "completed", "score", "passed", "time_spent"}).
				AddRow("att-1", "quiz-1", "user-1", true, 100, true, 42))
		// 提交后正确答案被改成了 B
		expectQuizLoad(mock, sqlmock.NewRows([]string{"id", "quiz_id", "type", "prompt", "correct_answer", "points", "order_index"}).
			AddRow("q1", "quiz-1", "SHORT_ANSWER", "Pick one", "B", 1, 1))
		mock.ExpectQuery("SELECT \\* FROM `attempt_answers`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "attempt_id", "question_id", "user_answer", "is_correct", "points_earned"}).
				AddRow("a1", "att-1", "q1", "A", true, 1).
				AddRow("a2", "att-1", "q9", "osmosis", true, 1))
		mock.ExpectQuery("SELECT \\* FROM `questions` WHERE id IN").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "type", "prompt", "correct_answer", "points", "order_index", "deleted_at"}).
				AddRow("q9", "quiz-1", "SHORT_ANSWER", "Water movement?", "osmosis", 1, 2, time.Now()))

		result, err := svc.GetAttemptResult("user-1", "quiz-1", "att-1")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())

		assert.Equal(t, 100, result.Score)
		assert.True(t, result.Passed)
		assert.Equal(t, 42, result.TimeSpent)
		assert.Equal(t, api.ResultSummary{Total: 2, Correct: 2, Incorrect: 0}, result.Summary)
		require.Len(t, result.Answers, 2)
		assert.Equal(t, api.AnswerResult{QuestionID: "q1", UserAnswer: "A", IsCorrect: true, CorrectAnswer: "B", PointsEarned: 1}, result.Answers[0])
		assert.Equal(t, "q9", result.Answers[1].QuestionID)
		assert.Equal(t, "osmosis", result.Answers[1].UserAnswer)
	})

	t.Run("in-progress attempt has no result", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewQuizService(repository.NewQuizRepository(db), nil, nil)
		mock.ExpectQuery("SELECT \\* FROM `quiz_attempts`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "user_id", "completed"}).
				AddRow("att-1", "quiz-1", "user-1", false))

		_, err := svc.GetAttemptResult("user-1", "quiz-1", "att-1")
		assert.ErrorIs(t, err, util.ErrAttemptNotFound)
	})
}
