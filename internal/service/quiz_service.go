package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"studysync_backend/internal/event"
	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/database"
	"studysync_backend/pkg/logger"
	"studysync_backend/pkg/monitoring"
	"studysync_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultQuizSeconds = 1800
	submitLockTTL      = 30 * time.Second
)

type QuizService struct {
	QuizRepo  *repository.QuizRepository
	Locks     *database.Locker
	Publisher event.Publisher
}

func NewQuizService(quizRepo *repository.QuizRepository, locks *database.Locker, publisher event.Publisher) *QuizService {
	return &QuizService{QuizRepo: quizRepo, Locks: locks, Publisher: publisher}
}

// Difficulty 按每题可用秒数粗略估计难度
func Difficulty(timeLimit *int, questionCount int) string {
	if questionCount == 0 {
		return "easy"
	}
	total := defaultQuizSeconds
	if timeLimit != nil && *timeLimit > 0 {
		total = *timeLimit * 60
	}
	perQuestion := float64(total) / float64(questionCount)
	switch {
	case perQuestion < 45:
		return "hard"
	case perQuestion < 90:
		return "medium"
	default:
		return "easy"
	}
}

// ToAPIQuiz 题目不携带答案与解析
func ToAPIQuiz(q *model.Quiz, questionCount int) api.Quiz {
	out := api.Quiz{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		TimeLimit:     q.TimeLimit,
		PassingScore:  q.PassingScore,
		QuestionCount: questionCount,
		Difficulty:    Difficulty(q.TimeLimit, questionCount),
		CreatedAt:     q.CreatedAt,
	}
	for i := range q.Questions {
		qs := &q.Questions[i]
		out.Questions = append(out.Questions, api.Question{
			ID:       qs.ID,
			Type:     api.QuestionType(qs.Type),
			Question: qs.Prompt,
			Options:  qs.OptionList(),
			Points:   qs.Points,
			Order:    qs.Order,
		})
	}
	return out
}

func (s *QuizService) List(userID string, page, limit int) (*api.QuizList, error) {
	rows, total, err := s.QuizRepo.List(userID, page, limit)
	if err != nil {
		return nil, err
	}
	out := &api.QuizList{
		Quizzes:    make([]api.Quiz, 0, len(rows)),
		Pagination: api.Pagination(util.NewPagination(page, limit, total)),
	}
	for i := range rows {
		out.Quizzes = append(out.Quizzes, ToAPIQuiz(&rows[i].Quiz, rows[i].QuestionCount))
	}
	return out, nil
}

// Get 只允许作者访问
func (s *QuizService) Get(userID, id string) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	if quiz.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return quiz, nil
}

func buildQuestions(inputs []api.QuestionInput) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		qt := model.QuestionType(in.Type)
		if !qt.Valid() {
			return nil, fmt.Errorf("%w: question %d has unknown type %q", util.ErrInvalidQuestion, i+1, in.Type)
		}
		if strings.TrimSpace(in.Question) == "" {
			return nil, fmt.Errorf("%w: question %d is empty", util.ErrInvalidQuestion, i+1)
		}
		opts := in.Options
		if qt == model.TrueFalse && len(opts) == 0 {
			opts = []string{"True", "False"}
		}
		if qt == model.MultipleChoice && len(opts) < 2 {
			return nil, fmt.Errorf("%w: question %d needs at least two options", util.ErrInvalidQuestion, i+1)
		}
		if qt != model.Essay && strings.TrimSpace(in.CorrectAnswer) == "" {
			return nil, fmt.Errorf("%w: question %d has no correct answer", util.ErrInvalidQuestion, i+1)
		}

		q := model.Question{
			Base:          model.Base{ID: in.ID},
			Type:          qt,
			Prompt:        in.Question,
			CorrectAnswer: in.CorrectAnswer,
			Explanation:   in.Explanation,
			Points:        in.Points,
			Order:         in.Order,
		}
		if q.Points <= 0 {
			q.Points = 1
		}
		if q.Order == 0 {
			q.Order = i + 1
		}
		if qt.HasOptions() {
			raw, err := json.Marshal(opts)
			if err != nil {
				return nil, err
			}
			q.Options = raw
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func applyQuizInput(quiz *model.Quiz, in api.QuizInput) error {
	questions, err := buildQuestions(in.Questions)
	if err != nil {
		return err
	}
	quiz.Title = in.Title
	quiz.Description = in.Description
	quiz.TimeLimit = in.TimeLimit
	quiz.PassingScore = 70
	if in.PassingScore != nil {
		quiz.PassingScore = *in.PassingScore
	}
	quiz.UploadID = in.UploadID
	quiz.FlashcardSetID = in.FlashcardSetID
	quiz.Questions = questions
	return nil
}

func (s *QuizService) Create(userID string, in api.QuizInput) (*model.Quiz, error) {
	quiz := &model.Quiz{UserID: userID}
	if err := applyQuizInput(quiz, in); err != nil {
		return nil, err
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Update(userID, id string, in api.QuizInput) (*model.Quiz, error) {
	quiz, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyQuizInput(quiz, in); err != nil {
		return nil, err
	}
	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Delete(userID, id string) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}
	return s.QuizRepo.Delete(id)
}

// StartAttempt 创建作答记录并返回去掉答案的测验
func (s *QuizService) StartAttempt(userID, quizID string) (*api.StartAttemptResponse, error) {
	quiz, err := s.Get(userID, quizID)
	if err != nil {
		return nil, err
	}
	attempt := &model.QuizAttempt{
		QuizID:    quiz.ID,
		UserID:    userID,
		StartedAt: time.Now(),
	}
	if err := s.QuizRepo.CreateAttempt(attempt); err != nil {
		return nil, err
	}
	return &api.StartAttemptResponse{
		Attempt: toAPIAttempt(attempt),
		Quiz:    ToAPIQuiz(quiz, len(quiz.Questions)),
	}, nil
}

func toAPIAttempt(a *model.QuizAttempt) api.Attempt {
	return api.Attempt{
		ID:          a.ID,
		QuizID:      a.QuizID,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		Completed:   a.Completed,
		TimeSpent:   a.TimeSpent,
		Score:       a.Score,
		Passed:      a.Passed,
	}
}

// Grading 一次判分的结果
type Grading struct {
	Answers []model.AttemptAnswer
	Results []api.AnswerResult
	Score   int
	Passed  bool
	Summary api.ResultSummary
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Grade 逐题判分。问答题不自动判分，得 0 分并标记待人工批改。
// 未作答的题目按错误计。
func Grade(questions []model.Question, answers map[string]string, passingScore int) Grading {
	var g Grading
	totalPoints, earned := 0, 0
	for i := range questions {
		q := &questions[i]
		totalPoints += q.Points
		userAnswer, answered := answers[q.ID]

		a := model.AttemptAnswer{QuestionID: q.ID, UserAnswer: userAnswer}
		switch {
		case q.Type == model.Essay:
			a.NeedsReview = answered && strings.TrimSpace(userAnswer) != ""
		case answered && normalizeAnswer(userAnswer) != "" && normalizeAnswer(userAnswer) == normalizeAnswer(q.CorrectAnswer):
			a.IsCorrect = true
			a.PointsEarned = q.Points
		}
		earned += a.PointsEarned
		if a.IsCorrect {
			g.Summary.Correct++
		}

		if answered {
			g.Answers = append(g.Answers, a)
		}
		g.Results = append(g.Results, api.AnswerResult{
			QuestionID:    q.ID,
			UserAnswer:    userAnswer,
			IsCorrect:     a.IsCorrect,
			CorrectAnswer: q.CorrectAnswer,
			PointsEarned:  a.PointsEarned,
			NeedsReview:   a.NeedsReview,
			Explanation:   q.Explanation,
		})
	}

	g.Summary.Total = len(questions)
	g.Summary.Incorrect = g.Summary.Total - g.Summary.Correct
	if totalPoints > 0 {
		g.Score = int(math.Round(float64(earned) / float64(totalPoints) * 100))
	}
	g.Passed = g.Score >= passingScore
	return g
}

func (s *QuizService) findAttempt(userID, quizID, attemptID string) (*model.QuizAttempt, error) {
	attempt, err := s.QuizRepo.FindAttempt(attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	if attempt.QuizID != quizID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

func (s *QuizService) lockSubmit(ctx context.Context, attemptID string) (func(), error) {
	unlock, err := s.Locks.Acquire(ctx, "quiz:attempt:submit:"+attemptID, submitLockTTL)
	if errors.Is(err, database.ErrLockHeld) {
		return nil, util.ErrSubmitInProgress
	}
	if err != nil {
		// redis 不可用时依赖数据库的 completed 条件更新
		logger.Log.Warn("submit lock unavailable", zap.String("attemptId", attemptID), zap.Error(err))
		return func() {}, nil
	}
	return unlock, nil
}

// SubmitAttempt 服务端判分并一次性结算作答
func (s *QuizService) SubmitAttempt(ctx context.Context, userID, quizID, attemptID string, req api.SubmitAttemptRequest) (*api.AttemptResult, error) {
	attempt, err := s.findAttempt(userID, quizID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		return nil, util.ErrAttemptAlreadyDone
	}

	unlock, err := s.lockSubmit(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}

	_, span := tracing.StartSpan(ctx, "quiz.grade",
		attribute.String("quiz.id", quizID),
		attribute.Int("quiz.questions", len(quiz.Questions)),
	)
	answers := make(map[string]string, len(req.Answers))
	for _, a := range req.Answers {
		answers[a.QuestionID] = a.UserAnswer
	}
	g := Grade(quiz.Questions, answers, quiz.PassingScore)
	span.SetAttributes(attribute.Int("quiz.score", g.Score))
	span.End()

	attempt.TimeSpent = req.TimeSpent
	if attempt.TimeSpent < 0 {
		attempt.TimeSpent = 0
	}
	attempt.Score = g.Score
	attempt.Passed = g.Passed
	if err := s.QuizRepo.CompleteAttempt(attempt, g.Answers); err != nil {
		if errors.Is(err, repository.ErrAttemptCompleted) {
			return nil, util.ErrAttemptAlreadyDone
		}
		return nil, err
	}

	monitoring.AttemptsSubmitted.WithLabelValues(strconv.FormatBool(g.Passed)).Inc()
	if s.Publisher != nil {
		if err := s.Publisher.PublishAttemptCompleted(ctx, event.AttemptCompleted{
			AttemptID: attempt.ID,
			QuizID:    quizID,
			UserID:    userID,
			Score:     g.Score,
			Passed:    g.Passed,
			TimeSpent: attempt.TimeSpent,
		}); err != nil {
			logger.Log.Warn("failed to publish attempt completed", zap.String("attemptId", attempt.ID), zap.Error(err))
		}
	}

	return &api.AttemptResult{
		AttemptID: attempt.ID,
		Score:     g.Score,
		Passed:    g.Passed,
		TimeSpent: attempt.TimeSpent,
		Answers:   g.Results,
		Summary:   g.Summary,
	}, nil
}

// GetAttemptResult 按提交时保存的判分结果组装，不重新判分。
// 提交后被删除的题目仍然列出。
func (s *QuizService) GetAttemptResult(userID, quizID, attemptID string) (*api.AttemptResult, error) {
	attempt, err := s.findAttempt(userID, quizID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Completed {
		return nil, util.ErrAttemptNotFound
	}
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	stored, err := s.QuizRepo.FindAttemptAnswers(attemptID)
	if err != nil {
		return nil, err
	}

	questions := quiz.Questions
	present := make(map[string]bool, len(questions))
	for i := range questions {
		present[questions[i].ID] = true
	}
	var removed []string
	for _, a := range stored {
		if !present[a.QuestionID] {
			removed = append(removed, a.QuestionID)
		}
	}
	if len(removed) > 0 {
		old, err := s.QuizRepo.FindQuestionsUnscoped(removed)
		if err != nil {
			return nil, err
		}
		questions = append(questions, old...)
	}

	byQuestion := make(map[string]model.AttemptAnswer, len(stored))
	for _, a := range stored {
		byQuestion[a.QuestionID] = a
	}
	out := &api.AttemptResult{
		AttemptID: attempt.ID,
		Score:     attempt.Score,
		Passed:    attempt.Passed,
		TimeSpent: attempt.TimeSpent,
		Answers:   make([]api.AnswerResult, 0, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		a := byQuestion[q.ID]
		if a.IsCorrect {
			out.Summary.Correct++
		}
		out.Answers = append(out.Answers, api.AnswerResult{
			QuestionID:    q.ID,
			UserAnswer:    a.UserAnswer,
			IsCorrect:     a.IsCorrect,
			CorrectAnswer: q.CorrectAnswer,
			PointsEarned:  a.PointsEarned,
			NeedsReview:   a.NeedsReview,
			Explanation:   q.Explanation,
		})
	}
	out.Summary.Total = len(questions)
	out.Summary.Incorrect = out.Summary.Total - out.Summary.Correct
	return out, nil
}
