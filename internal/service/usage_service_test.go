package service

import (
	"errors"
	"testing"

	"studysync_backend/internal/config"
	"studysync_backend/internal/model"
	"studysync_backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCounter struct {
	counts map[api.Resource]int64
	calls  int
	err    error
}

func (c *stubCounter) CountResource(userID string, resource api.Resource) (int64, error) {
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.counts[resource], nil
}

type stubSubs struct {
	sub *model.Subscription
	err error
}

func (s stubSubs) FindByUserID(userID string) (*model.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.sub == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sub, nil
}

func activeSub(tier model.Tier) stubSubs {
	return stubSubs{sub: &model.Subscription{Tier: tier, Status: model.SubscriptionActive}}
}

func intRef(v int) *int { return &v }

func TestUsageService_Check(t *testing.T) {
	t.Run("free at limit is rejected", func(t *testing.T) {
		counter := &stubCounter{counts: map[api.Resource]int64{api.ResourceQuizzes: 3}}
		svc := NewUsageService(counter, stubSubs{}, config.UsageConfig{})

		exceeded, err := svc.Check("u1", api.ResourceQuizzes)
		require.NoError(t, err)
		require.NotNil(t, exceeded)
		assert.Equal(t, int64(3), exceeded.Current)
		assert.Equal(t, int64(3), exceeded.Limit)
		assert.Equal(t, model.TierFree, exceeded.Tier)
	})

	t.Run("free below limit is allowed", func(t *testing.T) {
		counter := &stubCounter{counts: map[api.Resource]int64{api.ResourceQuizzes: 2}}
		svc := NewUsageService(counter, stubSubs{}, config.UsageConfig{})

		exceeded, err := svc.Check("u1", api.ResourceQuizzes)
		require.NoError(t, err)
		assert.Nil(t, exceeded)
		assert.Equal(t, 1, counter.calls)
	})

	t.Run("premium skips counting", func(t *testing.T) {
		counter := &stubCounter{counts: map[api.Resource]int64{api.ResourceUploads: 100000}}
		svc := NewUsageService(counter, activeSub(model.TierPremium), config.UsageConfig{})

		for _, r := range api.Resources {
			exceeded, err := svc.Check("u1", r)
			require.NoError(t, err)
			assert.Nil(t, exceeded)
		}
		assert.Zero(t, counter.calls)
	})

	t.Run("canceled subscription falls back to free", func(t *testing.T) {
		counter := &stubCounter{counts: map[api.Resource]int64{api.ResourceFlashcardSets: 5}}
		subs := stubSubs{sub: &model.Subscription{Tier: model.TierPremium, Status: model.SubscriptionCanceled}}
		svc := NewUsageService(counter, subs, config.UsageConfig{})

		exceeded, err := svc.Check("u1", api.ResourceFlashcardSets)
		require.NoError(t, err)
		require.NotNil(t, exceeded)
		assert.Equal(t, model.TierFree, exceeded.Tier)
	})

	t.Run("lookup errors propagate", func(t *testing.T) {
		boom := errors.New("db down")
		svc := NewUsageService(&stubCounter{err: boom}, stubSubs{}, config.UsageConfig{})
		_, err := svc.Check("u1", api.ResourceQuizzes)
		assert.ErrorIs(t, err, boom)

		svc = NewUsageService(&stubCounter{}, stubSubs{err: boom}, config.UsageConfig{})
		_, err = svc.Check("u1", api.ResourceQuizzes)
		assert.ErrorIs(t, err, boom)
	})
}

func TestBuildLimits(t *testing.T) {
	table := BuildLimits(config.UsageConfig{Limits: map[string]config.TierLimitConfig{
		"free":         {Quizzes: intRef(7)},
		"student_plus": {Uploads: intRef(-1)},
		"gold":         {Quizzes: intRef(1)},
	}})

	assert.Equal(t, int64(7), *table[model.TierFree][api.ResourceQuizzes])
	assert.Equal(t, int64(5), *table[model.TierFree][api.ResourceFlashcardSets])
	assert.Nil(t, table[model.TierStudentPlus][api.ResourceUploads])
	assert.Equal(t, int64(50), *table[model.TierStudentPlus][api.ResourceQuizzes])
	assert.NotContains(t, table, model.Tier("GOLD"))
}

func TestUsageService_Reload(t *testing.T) {
	counter := &stubCounter{counts: map[api.Resource]int64{api.ResourceQuizzes: 3}}
	svc := NewUsageService(counter, stubSubs{}, config.UsageConfig{})

	exceeded, _ := svc.Check("u1", api.ResourceQuizzes)
	require.NotNil(t, exceeded)

	svc.Reload(&config.Config{Usage: config.UsageConfig{Limits: map[string]config.TierLimitConfig{
		"FREE": {Quizzes: intRef(10)},
	}}})
	exceeded, err := svc.Check("u1", api.ResourceQuizzes)
	require.NoError(t, err)
	assert.Nil(t, exceeded)
}

func TestUsageService_Usage(t *testing.T) {
	counter := &stubCounter{counts: map[api.Resource]int64{
		api.ResourceQuizzes:       2,
		api.ResourceFlashcardSets: 1,
	}}
	svc := NewUsageService(counter, activeSub(model.TierStudentPlus), config.UsageConfig{})

	usage, err := svc.Usage("u1")
	require.NoError(t, err)
	assert.Equal(t, api.TierStudentPlus, usage.Tier)
	require.Len(t, usage.Resources, 3)
	assert.Equal(t, int64(2), usage.Resources[api.ResourceQuizzes].Used)
	assert.Equal(t, int64(50), *usage.Resources[api.ResourceQuizzes].Limit)

	svc = NewUsageService(counter, activeSub(model.TierUniversity), config.UsageConfig{})
	usage, err = svc.Usage("u1")
	require.NoError(t, err)
	assert.Nil(t, usage.Resources[api.ResourceUploads].Limit)
}
