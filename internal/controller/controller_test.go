package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"studysync_backend/internal/config"
	"studysync_backend/internal/service"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.SetUser(c, &util.Claims{UserID: userID})
		c.Next()
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{util.ErrQuizNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", util.ErrAttemptNotFound), http.StatusNotFound},
		{util.ErrPermissionDenied, http.StatusForbidden},
		{util.ErrAttemptAlreadyDone, http.StatusConflict},
		{util.ErrSubmitInProgress, http.StatusConflict},
		{util.ErrEmailRegistered, http.StatusConflict},
		{fmt.Errorf("%w: question 2 is empty", util.ErrInvalidQuestion), http.StatusBadRequest},
		{util.ErrUnknownPrice, http.StatusBadRequest},
		{util.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(ctx, tt.err)
			assert.Equal(t, tt.code, w.Code)

			var body api.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSubscriptionController_GetPlans(t *testing.T) {
	c := NewSubscriptionController(service.NewSubscriptionService(nil, nil, config.BillingConfig{Currency: "USD"}, nil))
	r := gin.New()
	r.GET("/subscriptions/plans", c.GetPlans)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/plans", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var plans []api.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	assert.Len(t, plans, 6)
}

func TestSubscriptionController_CheckoutValidation(t *testing.T) {
	c := NewSubscriptionController(service.NewSubscriptionService(nil, nil, config.BillingConfig{}, nil))
	r := gin.New()
	r.POST("/subscriptions/checkout", withUser("user-1"), c.Checkout)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/checkout",
		bytes.NewBufferString(`{"priceId":"price_premium_monthly","billingPeriod":"weekly"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/subscriptions/checkout",
		bytes.NewBufferString(`{"priceId":"price_gold_monthly","billingPeriod":"monthly"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"unknown price id"}`, w.Body.String())
}

func TestFeedbackController_SubmitValidation(t *testing.T) {
	c := NewFeedbackController(service.NewFeedbackService(nil, nil))
	r := gin.New()
	r.POST("/beta/feedback", withUser("user-1"), c.SubmitFeedback)

	for _, body := range []string{
		`{"category":"bug","rating":6,"message":"too high"}`,
		`{"category":"bug","rating":3}`,
		`{"category":"praise","rating":3,"message":"x"}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/beta/feedback", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestUploadController_EmptyBatch(t *testing.T) {
	c := NewUploadController(service.NewUploadService(nil, nil, nil, config.UploadConfig{MaxFiles: 10}, nil))
	r := gin.New()
	r.POST("/uploads/batch", withUser("user-1"), c.UploadBatch)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no files here"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploads/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"no files provided"}`, w.Body.String())
}
