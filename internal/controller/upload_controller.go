package controller

import (
	"io"
	"mime/multipart"
	"net/http"

	"studysync_backend/internal/service"
	"studysync_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 整个请求体的上限，单文件上限由 UploadService 校验
const maxBatchBodyBytes = 256 << 20

type UploadController struct {
	UploadService *service.UploadService
}

func NewUploadController(uploadService *service.UploadService) *UploadController {
	return &UploadController{UploadService: uploadService}
}

func toUploadFiles(headers []*multipart.FileHeader) []service.UploadFile {
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, service.UploadFile{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadSeekCloser, error) { return fh.Open() },
		})
	}
	return files
}

// UploadBatch godoc
// @Summary 批量上传学习资料
// @Description multipart 字段 files 可重复；单个文件失败在 errors 中返回
// @Tags 资料
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param files formData file true "资料文件"
// @Success 201 {object} api.BatchUploadResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 403 {object} api.UsageLimitBody "达到等级上限"
// @Router /uploads/batch [post]
func (c *UploadController) UploadBatch(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBatchBodyBytes)
	form, err := ctx.MultipartForm()
	if err != nil {
		util.BadRequest(ctx, "invalid multipart form: "+err.Error())
		return
	}

	resp, err := c.UploadService.UploadBatch(ctx.Request.Context(), currentUserID(ctx), toUploadFiles(form.File["files"]))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// ListUploads godoc
// @Summary 资料列表
// @Tags 资料
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} api.UploadList
// @Router /uploads [get]
func (c *UploadController) ListUploads(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, err := c.UploadService.List(currentUserID(ctx), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// DeleteUpload godoc
// @Summary 删除资料
// @Tags 资料
// @Security ApiKeyAuth
// @Param id path string true "资料ID"
// @Success 200 {object} map[string]interface{}
// @Router /uploads/{id} [delete]
func (c *UploadController) DeleteUpload(ctx *gin.Context) {
	if err := c.UploadService.Delete(ctx.Request.Context(), currentUserID(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
