package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// 学习资料允许的 MIME 类型（前缀或完整类型）
var AllowedUploadTypes = []string{
	"application/pdf",
	"text/",
	"image/",
	"application/zip", // docx/pptx 被识别为 zip 容器
}
