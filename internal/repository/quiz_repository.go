package repository

import (
	"errors"
	"time"

	"studysync_backend/internal/model"

	"gorm.io/gorm"
)

// ErrAttemptCompleted 作答已被另一请求提交
var ErrAttemptCompleted = errors.New("attempt already completed")

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// QuizListRow 列表行，附带题目数量
type QuizListRow struct {
	model.Quiz
	QuestionCount int `json:"questionCount"`
}

func (r *QuizRepository) List(userID string, page, limit int) ([]QuizListRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Quiz{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []QuizListRow
	err := r.DB.Table("quizzes q").
		Select("q.*, (SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = q.id AND qs.deleted_at IS NULL) AS question_count").
		Where("q.user_id = ? AND q.deleted_at IS NULL", userID).
		Order("q.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

// FindByID 预加载题目并按 order 排序
func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&quiz, "id = ?", id).Error
	return &quiz, err
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		questions := quiz.Questions
		quiz.Questions = nil
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		if err := createQuestions(tx, quiz.ID, questions); err != nil {
			return err
		}
		quiz.Questions = questions
		return nil
	})
}

// Update 覆盖测验字段。带已有 ID 的题目原地更新并保留 ID，
// 未带 ID 的新建，请求中没有出现的题目被删除。
// 作答记录按题目 ID 关联，所以已有题目的 ID 不能变。
func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		questions := quiz.Questions
		quiz.Questions = nil
		if err := tx.Save(quiz).Error; err != nil {
			return err
		}

		var existing []string
		if err := tx.Model(&model.Question{}).Where("quiz_id = ?", quiz.ID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		owned := make(map[string]bool, len(existing))
		for _, id := range existing {
			owned[id] = true
		}

		kept := make([]string, 0, len(questions))
		for i := range questions {
			q := &questions[i]
			q.QuizID = quiz.ID
			if q.ID != "" && owned[q.ID] {
				// 同一 ID 重复出现时只更新第一次
				owned[q.ID] = false
				err := tx.Model(q).
					Select("Type", "Prompt", "Options", "CorrectAnswer", "Explanation", "Points", "Order").
					Updates(q).Error
				if err != nil {
					return err
				}
			} else {
				q.ID = ""
				if err := tx.Create(q).Error; err != nil {
					return err
				}
			}
			kept = append(kept, q.ID)
		}

		stale := tx.Where("quiz_id = ?", quiz.ID)
		if len(kept) > 0 {
			stale = stale.Where("id NOT IN ?", kept)
		}
		if err := stale.Delete(&model.Question{}).Error; err != nil {
			return err
		}
		quiz.Questions = questions
		return nil
	})
}

func createQuestions(tx *gorm.DB, quizID string, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].ID = ""
		questions[i].QuizID = quizID
	}
	return tx.Create(&questions).Error
}

// FindQuestionsUnscoped 包含已软删除的题目，用于展示历史作答
func (r *QuizRepository) FindQuestionsUnscoped(ids []string) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Unscoped().Where("id IN ?", ids).Order("order_index ASC").Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		var attemptIDs []string
		if err := tx.Model(&model.QuizAttempt{}).Where("quiz_id = ?", id).Pluck("id", &attemptIDs).Error; err != nil {
			return err
		}
		if len(attemptIDs) > 0 {
			if err := tx.Where("attempt_id IN ?", attemptIDs).Delete(&model.AttemptAnswer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizAttempt{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Quiz{}, "id = ?", id).Error
	})
}

func (r *QuizRepository) CountByUser(userID string) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Quiz{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *QuizRepository) FindAllByUser(userID string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Select("id", "title", "upload_id", "flashcard_set_id", "created_at").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizRepository) FindAttempt(id string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.First(&attempt, "id = ?", id).Error
	return &attempt, err
}

func (r *QuizRepository) FindAttemptAnswers(attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

// CompleteAttempt 在一个事务内写入答案并把作答标记为完成。
// 只更新 completed = false 的记录，保证每次作答只结算一次。
func (r *QuizRepository) CompleteAttempt(attempt *model.QuizAttempt, answers []model.AttemptAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.QuizAttempt{}).
			Where("id = ? AND completed = ?", attempt.ID, false).
			Updates(map[string]interface{}{
				"completed":    true,
				"completed_at": now,
				"time_spent":   attempt.TimeSpent,
				"score":        attempt.Score,
				"passed":       attempt.Passed,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAttemptCompleted
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		attempt.Completed = true
		attempt.CompletedAt = &now
		return nil
	})
}
