package util

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studysync_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMimeTypeRewinds(t *testing.T) {
	r := bytes.NewReader([]byte("%PDF-1.7 study notes"))

	mime, err := DetectMimeType(r, AllowedUploadTypes)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 study notes", string(rest))
}

func TestDetectMimeTypeRejects(t *testing.T) {
	exe := append([]byte("MZ"), make([]byte, 64)...)
	_, err := DetectMimeType(bytes.NewReader(exe), []string{"application/pdf"})
	assert.ErrorIs(t, err, ErrInvalidFileType)
}

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".pdf", SafeExt("Lecture 1.PDF"))
	assert.Equal(t, "", SafeExt("README"))
	assert.Equal(t, ".md", SafeExt("notes.m$d"))
}

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{Email: "ada@example.com", Role: model.Student}
	user.ID = "u-1"

	token, err := GenerateJWT(user, model.TierStudentPlus, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, model.Student, claims.Role)
	assert.Equal(t, model.TierStudentPlus, claims.Tier)
	assert.Equal(t, "studysync", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	_, err = ParseJWT(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 每次签发的 jti 不同
	again, err := GenerateJWT(user, model.TierStudentPlus, "secret", time.Hour)
	require.NoError(t, err)
	other, err := ParseJWT(again, "secret")
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, other.ID)
}

func TestParseJWTRejects(t *testing.T) {
	sign := func(c *Claims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		require.NoError(t, err)
		return tok
	}
	valid := func() *Claims {
		now := time.Now()
		return &Claims{
			UserID: "u-1",
			Role:   model.Student,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "studysync",
				Subject:   "u-1",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	foreign := valid()
	foreign.Issuer = "someone-else"
	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	mismatched := valid()
	mismatched.Subject = "u-2"

	for name, c := range map[string]*Claims{
		"foreign issuer":   foreign,
		"expired":          expired,
		"missing expiry":   noExpiry,
		"subject mismatch": mismatched,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(sign(c), "secret")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := ParseJWT(sign(valid()), "secret")
	assert.NoError(t, err)
}

func TestClaimsHasRole(t *testing.T) {
	student := &Claims{Role: model.Student}
	assert.True(t, student.HasRole(model.Student))
	assert.False(t, student.HasRole(model.Admin))
	assert.False(t, student.HasRole())

	admin := &Claims{Role: model.Admin}
	assert.True(t, admin.HasRole(model.Student))
}

func TestUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetUserFromContext(c))

	SetUser(c, &Claims{UserID: "u-1"})
	require.NotNil(t, GetUserFromContext(c))
	assert.Equal(t, "u-1", GetUserFromContext(c).UserID)
}

func TestErrorWritesErrorField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequest(c, "title is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"title is required"}`, w.Body.String())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 5).TotalPages)
}
