package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"studysync_backend/internal/config"
	"studysync_backend/internal/event"
	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/logger"
	"studysync_backend/pkg/monitoring"
	"studysync_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadFile 批量上传中的单个文件
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadSeekCloser, error)
}

// UploadQuota 查询用户在当前等级下还能创建的资源数
type UploadQuota interface {
	Remaining(userID string, resource api.Resource) (int64, bool, error)
}

type UploadService struct {
	Repo      *repository.UploadRepository
	Storage   *StorageService
	Quota     UploadQuota
	Cfg       config.UploadConfig
	Publisher event.Publisher
}

func NewUploadService(repo *repository.UploadRepository, storage *StorageService, quota UploadQuota, cfg config.UploadConfig, publisher event.Publisher) *UploadService {
	return &UploadService{Repo: repo, Storage: storage, Quota: quota, Cfg: cfg, Publisher: publisher}
}

func ToAPIUpload(u *model.Upload) api.Upload {
	return api.Upload{
		ID:           u.ID,
		OriginalName: u.OriginalName,
		URL:          u.URL,
		ContentType:  u.ContentType,
		Size:         u.Size,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
	}
}

func (s *UploadService) maxBytes() int64 {
	mb := s.Cfg.MaxFileSizeMB
	if mb <= 0 {
		mb = 25
	}
	return int64(mb) << 20
}

// quota 第二个返回值为 false 表示不限量
func (s *UploadService) quota(userID string) (int64, bool, error) {
	if s.Quota == nil {
		return 0, false, nil
	}
	return s.Quota.Remaining(userID, api.ResourceUploads)
}

// UploadBatch 逐个校验并保存文件。单个文件失败记录在 Errors 中，不影响其他文件。
// 超出等级剩余额度的文件不会保存，同样记为单个文件的错误。
func (s *UploadService) UploadBatch(ctx context.Context, userID string, files []UploadFile) (*api.BatchUploadResponse, error) {
	if len(files) == 0 {
		return nil, util.ErrNoFiles
	}
	if s.Cfg.MaxFiles > 0 && len(files) > s.Cfg.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d", util.ErrTooManyFiles, s.Cfg.MaxFiles)
	}
	remaining, limited, err := s.quota(userID)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "upload.batch", attribute.Int("upload.files", len(files)))
	defer span.End()

	out := &api.BatchUploadResponse{Uploads: []api.Upload{}, Errors: []api.UploadError{}}
	for _, f := range files {
		if limited && int64(len(out.Uploads)) >= remaining {
			monitoring.UploadedFiles.WithLabelValues("over_quota").Inc()
			out.Errors = append(out.Errors, api.UploadError{Filename: f.Name, Error: errUsageLimitReached.Error()})
			continue
		}
		upload, err := s.storeOne(ctx, userID, f)
		if err != nil {
			monitoring.UploadedFiles.WithLabelValues("rejected").Inc()
			logger.Log.Info("upload rejected",
				zap.String("userId", userID),
				zap.String("filename", f.Name),
				zap.Error(err),
			)
			out.Errors = append(out.Errors, api.UploadError{Filename: f.Name, Error: uploadErrorMessage(err)})
			continue
		}
		monitoring.UploadedFiles.WithLabelValues("stored").Inc()
		out.Uploads = append(out.Uploads, ToAPIUpload(upload))
	}
	span.SetAttributes(attribute.Int("upload.stored", len(out.Uploads)), attribute.Int("upload.rejected", len(out.Errors)))
	return out, nil
}

var (
	errFileTooLarge      = errors.New("file exceeds the size limit")
	errUsageLimitReached = errors.New("usage limit reached")
)

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, util.ErrInvalidFileType):
		return "file type not allowed"
	case errors.Is(err, errFileTooLarge):
		return errFileTooLarge.Error()
	}
	return "failed to store file"
}

func (s *UploadService) storeOne(ctx context.Context, userID string, f UploadFile) (*model.Upload, error) {
	if f.Size > s.maxBytes() {
		return nil, errFileTooLarge
	}
	file, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mimeType, err := util.DetectMimeType(file, util.AllowedUploadTypes)
	if err != nil {
		return nil, err
	}

	id := model.NewID()
	key := path.Join("materials", userID, id+util.SafeExt(f.Name))
	url, err := s.Storage.Upload(ctx, key, file, f.Size, mimeType)
	if err != nil {
		return nil, err
	}

	upload := &model.Upload{
		UserID:       userID,
		OriginalName: path.Base(f.Name),
		ObjectKey:    key,
		URL:          url,
		ContentType:  mimeType,
		Size:         f.Size,
		Status:       model.UploadStored,
	}
	upload.ID = id
	if err := s.Repo.Create(upload); err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("failed to remove orphaned object", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishUploadStored(ctx, event.UploadStored{
			UploadID:    upload.ID,
			UserID:      userID,
			ContentType: mimeType,
			Size:        f.Size,
		}); err != nil {
			logger.Log.Warn("failed to publish upload stored", zap.String("uploadId", upload.ID), zap.Error(err))
		}
	}
	return upload, nil
}

func (s *UploadService) List(userID string, page, limit int) (*api.UploadList, error) {
	uploads, total, err := s.Repo.List(userID, page, limit)
	if err != nil {
		return nil, err
	}
	out := &api.UploadList{
		Uploads:    make([]api.Upload, 0, len(uploads)),
		Pagination: api.Pagination(util.NewPagination(page, limit, total)),
	}
	for i := range uploads {
		out.Uploads = append(out.Uploads, ToAPIUpload(&uploads[i]))
	}
	return out, nil
}

// Delete 先删记录再删对象，对象删除失败只记录日志
func (s *UploadService) Delete(ctx context.Context, userID, id string) error {
	upload, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrUploadNotFound
	}
	if err != nil {
		return err
	}
	if upload.UserID != userID {
		return util.ErrPermissionDenied
	}
	if err := s.Repo.Delete(id); err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, upload.ObjectKey); err != nil {
		logger.Log.Warn("failed to delete stored object", zap.String("key", upload.ObjectKey), zap.Error(err))
	}
	return nil
}
