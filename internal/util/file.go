package util

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

var ErrInvalidFileType = errors.New("invalid file type")

// DetectMimeType 嗅探文件头部并将读取位置复原，便于后续完整上传
func DetectMimeType(reader io.ReadSeeker, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, ErrInvalidFileType
}

// SafeExt 返回小写扩展名，只保留字母数字
func SafeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	var b strings.Builder
	for _, r := range ext {
		if r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() <= 1 {
		return ""
	}
	return b.String()
}
