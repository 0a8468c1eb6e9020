package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studysync_backend/pkg/api"
	"studysync_backend/pkg/attempt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ attempt.Backend = (*Client)(nil)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientAuthAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			var cred api.Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
			assert.Equal(t, "a@b.com", cred.Email)
			writeJSON(w, http.StatusOK, api.AuthResponse{Token: "tok-1", User: api.User{ID: "u1", Email: cred.Email}})
		case "/api/profile":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, api.User{ID: "u1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	_, err := c.Login(context.Background(), api.Credentials{Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", c.Token())

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestClientValidation(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Login(ctx, api.Credentials{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.CreateFlashcardSet(ctx, api.FlashcardSetInput{Title: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.SubmitFeedback(ctx, api.FeedbackInput{Category: "bug", Rating: 9, Message: "hi"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.Checkout(ctx, api.CheckoutRequest{PriceID: "p", BillingPeriod: "weekly"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.UploadBatch(ctx, nil)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, hits, "invalid requests must not reach the server")
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quizzes":
			writeJSON(w, http.StatusForbidden, api.UsageLimitBody{
				Error:      "usage limit reached",
				Code:       api.UsageLimitCode,
				Resource:   api.ResourceQuizzes,
				Current:    3,
				Limit:      3,
				Tier:       api.TierFree,
				UpgradeURL: "/pricing",
			})
		case "/quizzes/missing":
			writeJSON(w, http.StatusNotFound, api.ErrorBody{Error: "quiz not found"})
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down")
		}
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.CreateQuiz(ctx, api.QuizInput{Title: "Bio"})
	require.Error(t, err)
	limit, ok := IsUsageLimit(err)
	require.True(t, ok)
	assert.Equal(t, int64(3), limit.Current)
	assert.Equal(t, int64(3), limit.Limit)
	assert.Equal(t, api.TierFree, limit.Tier)

	_, err = c.GetQuiz(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "quiz not found", apiErr.Message)
	_, ok = IsUsageLimit(err)
	assert.False(t, ok)

	_, err = c.KnowledgeGraph(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestClientAttemptFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/quizzes/q 1/attempt":
			writeJSON(w, http.StatusCreated, api.StartAttemptResponse{
				Attempt: api.Attempt{ID: "a1", QuizID: "q 1"},
				Quiz:    api.Quiz{ID: "q 1", Questions: []api.Question{{ID: "x", Order: 1}}},
			})
		case strings.HasSuffix(r.URL.Path, "/attempt/a1/submit"):
			var req api.SubmitAttemptRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 12, req.TimeSpent)
			assert.NotNil(t, req.Answers)
			writeJSON(w, http.StatusOK, api.SubmitAttemptResponse{Result: api.AttemptResult{
				AttemptID: "a1",
				Score:     100,
				Passed:    true,
				Summary:   api.ResultSummary{Total: 1, Correct: 1},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	start, err := c.StartAttempt(ctx, "q 1")
	require.NoError(t, err)
	assert.Equal(t, "a1", start.Attempt.ID)

	res, err := c.SubmitAttempt(ctx, "q 1", "a1", api.SubmitAttemptRequest{TimeSpent: 12})
	require.NoError(t, err)
	assert.True(t, res.Result.Passed)
	assert.Equal(t, 100, res.Result.Score)
}

func TestClientUploadBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "notes.txt", files[0].Filename)
		writeJSON(w, http.StatusCreated, api.BatchUploadResponse{
			Uploads: []api.Upload{{ID: "u1", OriginalName: "notes.txt"}},
			Errors:  []api.UploadError{{Filename: "evil.exe", Error: "file type not allowed"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	out, err := c.UploadBatch(context.Background(), []File{
		{Name: "notes.txt", Reader: strings.NewReader("mitochondria")},
		{Name: "evil.exe", Reader: strings.NewReader("MZ")},
	})
	require.NoError(t, err)
	assert.Len(t, out.Uploads, 1)
	assert.Len(t, out.Errors, 1)
}

func TestClientPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, api.QuizList{Pagination: api.Pagination{Page: 2, Limit: 5, Total: 7, TotalPages: 2}})
	}))
	defer srv.Close()

	out, err := New(srv.URL).ListQuizzes(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Pagination.TotalPages)
}

func TestClientDrivesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/submit") {
			var req api.SubmitAttemptRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusOK, api.SubmitAttemptResponse{Result: api.AttemptResult{
				AttemptID: "a1",
				Summary:   api.ResultSummary{Total: 2, Correct: 0, Incorrect: 2},
			}})
			return
		}
		writeJSON(w, http.StatusCreated, api.StartAttemptResponse{
			Attempt: api.Attempt{ID: "a1"},
			Quiz:    api.Quiz{ID: "q1", Questions: []api.Question{{ID: "x"}, {ID: "y"}}},
		})
	}))
	defer srv.Close()

	s := attempt.NewSession(New(srv.URL), "q1", attempt.WithManualTicks())
	defer s.Close()
	require.NoError(t, s.Start(context.Background()))
	res, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.Correct)
	assert.Equal(t, attempt.StateCompleted, s.State())
}
