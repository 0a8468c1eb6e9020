// Package apiclient is a typed client for the StudySync REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"studysync_backend/pkg/api"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrValidation wraps request validation failures detected before sending.
var ErrValidation = errors.New("invalid request")

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	// UsageLimit is set when the server rejected a create for tier limits.
	UsageLimit *api.UsageLimitBody
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// IsUsageLimit reports whether err is a usage-limit rejection and returns
// its details.
func IsUsageLimit(err error) (*api.UsageLimitBody, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.UsageLimit != nil {
		return apiErr.UsageLimit, true
	}
	return nil, false
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	log      *zap.Logger

	mu    sync.RWMutex
	token string
}

// New builds a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		validate: validator.New(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.log.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}
	var limit api.UsageLimitBody
	if err := json.Unmarshal(data, &limit); err == nil {
		apiErr.Message = limit.Error
		if status == http.StatusForbidden && limit.Code == api.UsageLimitCode {
			apiErr.UsageLimit = &limit
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Auth

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, cred api.Credentials) (*api.AuthResponse, error) {
	return c.auth(ctx, "/register", cred)
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, cred api.Credentials) (*api.AuthResponse, error) {
	return c.auth(ctx, "/login", cred)
}

func (c *Client) auth(ctx context.Context, path string, cred api.Credentials) (*api.AuthResponse, error) {
	if err := c.check(cred); err != nil {
		return nil, err
	}
	var out api.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, cred, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*api.User, error) {
	var out api.User
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quizzes

func (c *Client) ListQuizzes(ctx context.Context, page, limit int) (*api.QuizList, error) {
	var out api.QuizList
	if err := c.do(ctx, http.MethodGet, "/quizzes"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetQuiz(ctx context.Context, id string) (*api.Quiz, error) {
	var out api.Quiz
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateQuiz(ctx context.Context, in api.QuizInput) (*api.Quiz, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out api.Quiz
	if err := c.do(ctx, http.MethodPost, "/quizzes", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateQuiz(ctx context.Context, id string, in api.QuizInput) (*api.Quiz, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out api.Quiz
	if err := c.do(ctx, http.MethodPut, "/quizzes/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/quizzes/"+url.PathEscape(id), nil, nil)
}

// StartAttempt opens a new attempt; the returned quiz carries no answers.
func (c *Client) StartAttempt(ctx context.Context, quizID string) (*api.StartAttemptResponse, error) {
	var out api.StartAttemptResponse
	if err := c.do(ctx, http.MethodPost, "/quizzes/"+url.PathEscape(quizID)+"/attempt", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, quizID, attemptID string, req api.SubmitAttemptRequest) (*api.SubmitAttemptResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	if req.Answers == nil {
		req.Answers = []api.AnswerSubmission{}
	}
	path := "/quizzes/" + url.PathEscape(quizID) + "/attempt/" + url.PathEscape(attemptID) + "/submit"
	var out api.SubmitAttemptResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Flashcards

func (c *Client) ListFlashcardSets(ctx context.Context, page, limit int) (*api.FlashcardSetList, error) {
	var out api.FlashcardSetList
	if err := c.do(ctx, http.MethodGet, "/flashcards/sets"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFlashcardSet(ctx context.Context, id string) (*api.FlashcardSet, error) {
	var out api.FlashcardSet
	if err := c.do(ctx, http.MethodGet, "/flashcards/sets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateFlashcardSet(ctx context.Context, in api.FlashcardSetInput) (*api.FlashcardSet, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out api.FlashcardSet
	if err := c.do(ctx, http.MethodPost, "/flashcards/sets", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFlashcardSet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/flashcards/sets/"+url.PathEscape(id), nil, nil)
}

// Uploads

// File is one part of a batch upload.
type File struct {
	Name   string
	Reader io.Reader
}

// UploadBatch sends files as multipart "files" parts. Per-file rejections
// come back in the response's Errors, not as an error.
func (c *Client) UploadBatch(ctx context.Context, files []File) (*api.BatchUploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrValidation)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads/batch", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out api.BatchUploadResponse
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUploads(ctx context.Context, page, limit int) (*api.UploadList, error) {
	var out api.UploadList
	if err := c.do(ctx, http.MethodGet, "/uploads"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUpload(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/uploads/"+url.PathEscape(id), nil, nil)
}

func (c *Client) KnowledgeGraph(ctx context.Context) (*api.KnowledgeGraph, error) {
	var out api.KnowledgeGraph
	if err := c.do(ctx, http.MethodGet, "/knowledge-graph", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Subscriptions

func (c *Client) CurrentSubscription(ctx context.Context) (*api.Subscription, error) {
	var out api.Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/current", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Usage(ctx context.Context) (*api.Usage, error) {
	var out api.Usage
	if err := c.do(ctx, http.MethodGet, "/subscriptions/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Plans(ctx context.Context) ([]api.Plan, error) {
	var out []api.Plan
	if err := c.do(ctx, http.MethodGet, "/subscriptions/plans", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Checkout(ctx context.Context, in api.CheckoutRequest) (*api.CheckoutResponse, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out api.CheckoutResponse
	if err := c.do(ctx, http.MethodPost, "/subscriptions/checkout", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Beta feedback

func (c *Client) SubmitFeedback(ctx context.Context, in api.FeedbackInput) (*api.Feedback, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out api.Feedback
	if err := c.do(ctx, http.MethodPost, "/beta/feedback", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFeedback(ctx context.Context, page, limit int) (*api.FeedbackList, error) {
	var out api.FeedbackList
	if err := c.do(ctx, http.MethodGet, "/beta/feedback"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAllFeedback requires an admin token.
func (c *Client) ListAllFeedback(ctx context.Context, page, limit int) (*api.FeedbackList, error) {
	var out api.FeedbackList
	if err := c.do(ctx, http.MethodGet, "/admin/beta/feedback"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
