package flow

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidDataURI 不是 base64 编码的 data URI
var ErrInvalidDataURI = errors.New("invalid data URI")

// imageMIMETypes 视觉 flow 接受的照片格式
var imageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ParseDataURI 解析 data:<mime>;base64,<data>
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, ErrInvalidDataURI
	}
	// 去掉 image/png;charset=... 之类的附加参数
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidDataURI
	}
	return strings.ToLower(mimeType), data, nil
}

// isImageDataURI 能被 ParseDataURI 解析且为 jpeg/png/webp
func isImageDataURI(uri string) bool {
	mimeType, data, err := ParseDataURI(uri)
	return err == nil && len(data) > 0 && imageMIMETypes[mimeType]
}
