package service

import (
	"errors"
	"strings"
	"sync/atomic"

	"studysync_backend/internal/config"
	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LimitTable 等级 -> 资源 -> 上限，nil 表示不限量
type LimitTable map[model.Tier]map[api.Resource]*int64

func limit(n int64) *int64 { return &n }

// DefaultLimits 未配置时使用的各等级上限
func DefaultLimits() LimitTable {
	return LimitTable{
		model.TierFree: {
			api.ResourceFlashcardSets: limit(5),
			api.ResourceQuizzes:       limit(3),
			api.ResourceUploads:       limit(10),
		},
		model.TierPremium: {
			api.ResourceFlashcardSets: nil,
			api.ResourceQuizzes:       nil,
			api.ResourceUploads:       nil,
		},
		model.TierStudentPlus: {
			api.ResourceFlashcardSets: limit(100),
			api.ResourceQuizzes:       limit(50),
			api.ResourceUploads:       limit(200),
		},
		model.TierUniversity: {
			api.ResourceFlashcardSets: nil,
			api.ResourceQuizzes:       nil,
			api.ResourceUploads:       nil,
		},
	}
}

// BuildLimits 在默认值上叠加配置。配置键不区分大小写；
// 未填写的项沿用默认值，负数表示不限量。
func BuildLimits(cfg config.UsageConfig) LimitTable {
	table := DefaultLimits()
	for key, tl := range cfg.Limits {
		tier := model.Tier(strings.ToUpper(key))
		if !tier.Valid() {
			logger.Log.Warn("ignoring usage limits for unknown tier", zap.String("tier", key))
			continue
		}
		apply := func(r api.Resource, v *int) {
			if v == nil {
				return
			}
			if *v < 0 {
				table[tier][r] = nil
				return
			}
			table[tier][r] = limit(int64(*v))
		}
		apply(api.ResourceFlashcardSets, tl.FlashcardSets)
		apply(api.ResourceQuizzes, tl.Quizzes)
		apply(api.ResourceUploads, tl.Uploads)
	}
	return table
}

// ResourceCounter 统计用户已拥有的资源数量
type ResourceCounter interface {
	CountResource(userID string, resource api.Resource) (int64, error)
}

// SubscriptionFinder 查询用户订阅，未订阅返回 gorm.ErrRecordNotFound
type SubscriptionFinder interface {
	FindByUserID(userID string) (*model.Subscription, error)
}

// RepositoryCounter 基于各仓储的计数实现
type RepositoryCounter struct {
	Quizzes    *repository.QuizRepository
	Flashcards *repository.FlashcardRepository
	Uploads    *repository.UploadRepository
}

var ErrUnknownResource = errors.New("unknown resource")

func (c *RepositoryCounter) CountResource(userID string, resource api.Resource) (int64, error) {
	switch resource {
	case api.ResourceQuizzes:
		return c.Quizzes.CountByUser(userID)
	case api.ResourceFlashcardSets:
		return c.Flashcards.CountByUser(userID)
	case api.ResourceUploads:
		return c.Uploads.CountByUser(userID)
	}
	return 0, ErrUnknownResource
}

// LimitExceeded 达到上限时的详情，直接用于 403 响应
type LimitExceeded struct {
	Tier     model.Tier
	Resource api.Resource
	Current  int64
	Limit    int64
}

type UsageService struct {
	limits  atomic.Pointer[LimitTable]
	counter ResourceCounter
	subs    SubscriptionFinder
}

func NewUsageService(counter ResourceCounter, subs SubscriptionFinder, cfg config.UsageConfig) *UsageService {
	s := &UsageService{counter: counter, subs: subs}
	s.SetLimits(BuildLimits(cfg))
	return s
}

// SetLimits 原子替换上限表，供配置热更新使用
func (s *UsageService) SetLimits(table LimitTable) {
	s.limits.Store(&table)
}

// Reload 配置变更回调
func (s *UsageService) Reload(cfg *config.Config) {
	s.SetLimits(BuildLimits(cfg.Usage))
	logger.Log.Info("usage limits reloaded")
}

// Limit 返回上限；第二个返回值为 false 表示不限量
func (s *UsageService) Limit(tier model.Tier, resource api.Resource) (int64, bool) {
	table := *s.limits.Load()
	byRes, ok := table[tier]
	if !ok {
		byRes = table[model.TierFree]
	}
	l := byRes[resource]
	if l == nil {
		return 0, false
	}
	return *l, true
}

// TierFor 没有订阅或订阅不可用的用户按 FREE 处理
func (s *UsageService) TierFor(userID string) (model.Tier, error) {
	sub, err := s.subs.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.TierFree, nil
	}
	if err != nil {
		return "", err
	}
	if !sub.IsActive() || !sub.Tier.Valid() {
		return model.TierFree, nil
	}
	return sub.Tier, nil
}

// Check 判断用户能否再创建一个资源。不限量的等级不会触发计数查询。
// 返回非 nil 的 LimitExceeded 表示应拒绝。
func (s *UsageService) Check(userID string, resource api.Resource) (*LimitExceeded, error) {
	tier, err := s.TierFor(userID)
	if err != nil {
		return nil, err
	}
	ceiling, limited := s.Limit(tier, resource)
	if !limited {
		return nil, nil
	}
	current, err := s.counter.CountResource(userID, resource)
	if err != nil {
		return nil, err
	}
	if current >= ceiling {
		return &LimitExceeded{Tier: tier, Resource: resource, Current: current, Limit: ceiling}, nil
	}
	return nil, nil
}

// Remaining 返回还能创建的数量，最小为 0；第二个返回值为 false 表示不限量
func (s *UsageService) Remaining(userID string, resource api.Resource) (int64, bool, error) {
	tier, err := s.TierFor(userID)
	if err != nil {
		return 0, false, err
	}
	ceiling, limited := s.Limit(tier, resource)
	if !limited {
		return 0, false, nil
	}
	current, err := s.counter.CountResource(userID, resource)
	if err != nil {
		return 0, false, err
	}
	if current >= ceiling {
		return 0, true, nil
	}
	return ceiling - current, true, nil
}

// Usage 返回每类资源的用量与上限
func (s *UsageService) Usage(userID string) (*api.Usage, error) {
	tier, err := s.TierFor(userID)
	if err != nil {
		return nil, err
	}
	out := &api.Usage{Tier: api.Tier(tier), Resources: make(map[api.Resource]api.ResourceUsage, len(api.Resources))}
	for _, r := range api.Resources {
		used, err := s.counter.CountResource(userID, r)
		if err != nil {
			return nil, err
		}
		ru := api.ResourceUsage{Used: used}
		if ceiling, limited := s.Limit(tier, r); limited {
			ru.Limit = limit(ceiling)
		}
		out.Resources[r] = ru
	}
	return out, nil
}
