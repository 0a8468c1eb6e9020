package repository

import (
	"errors"
	"testing"

	"studysync_backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestQuizRepository_CountByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `quizzes` WHERE user_id = \\?").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))

	n, err := repo.CountByUser("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepository_CompleteAttempt(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQuizRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `quiz_attempts` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `attempt_answers`").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		attempt := &model.QuizAttempt{Base: model.Base{ID: "att-1"}, Score: 50, TimeSpent: 30}
		answers := []model.AttemptAnswer{
			{QuestionID: "q1", UserAnswer: "a", IsCorrect: true, PointsEarned: 1},
			{QuestionID: "q2", UserAnswer: "b"},
		}
		require.NoError(t, repo.CompleteAttempt(attempt, answers))
		assert.True(t, attempt.Completed)
		assert.NotNil(t, attempt.CompletedAt)
		assert.Equal(t, "att-1", answers[1].AttemptID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyCompleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQuizRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `quiz_attempts` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		attempt := &model.QuizAttempt{Base: model.Base{ID: "att-1"}}
		err := repo.CompleteAttempt(attempt, []model.AttemptAnswer{{QuestionID: "q1"}})
		assert.True(t, errors.Is(err, ErrAttemptCompleted))
		assert.False(t, attempt.Completed)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubscriptionRepository_FindByUserID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `subscriptions` WHERE user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "tier"}))

	_, err := repo.FindByUserID("user-1")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedbackRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `beta_feedback`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fb := &model.BetaFeedback{UserID: "user-1", Category: model.FeedbackBug, Rating: 4, Message: "timer skips"}
	require.NoError(t, repo.Create(fb))
	assert.NotEmpty(t, fb.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadRepository_CountByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUploadRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `uploads`").
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(10))

	n, err := repo.CountByUser("user-2")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
