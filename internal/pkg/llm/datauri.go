package llm

import (
	"encoding/base64"

	"github.com/greendental/backend/internal/pkg/flow"
)

// ErrInvalidDataURI 与输入校验共用同一套语法
var ErrInvalidDataURI = flow.ErrInvalidDataURI

// ParseDataURI 解析 data:<mime>;base64,<data>
func ParseDataURI(uri string) (string, []byte, error) {
	return flow.ParseDataURI(uri)
}

// FormatDataURI 编码为 base64 data URI
func FormatDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
