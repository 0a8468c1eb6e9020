package model

type UploadStatus string

const (
	UploadStored     UploadStatus = "STORED"
	UploadProcessing UploadStatus = "PROCESSING"
	UploadReady      UploadStatus = "READY"
	UploadFailed     UploadStatus = "FAILED"
)

// swagger:model Upload
type Upload struct {
	Base
	UserID       string       `gorm:"type:varchar(36);index;not null" json:"userId"`
	OriginalName string       `gorm:"size:255;not null" json:"originalName"`
	ObjectKey    string       `gorm:"size:255;not null" json:"-"`
	URL          string       `gorm:"size:512" json:"url"`
	ContentType  string       `gorm:"size:100" json:"contentType"`
	Size         int64        `json:"size"`
	Status       UploadStatus `gorm:"size:16;default:'STORED'" json:"status"`
}

func (Upload) TableName() string {
	return "uploads"
}
