package flow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvocationFailed 模型调用失败（网络错误、超时、服务端错误）
	ErrInvocationFailed = errors.New("could not generate a response")
	// ErrEmptyOutput 模型返回成功但没有可用的结构化结果
	ErrEmptyOutput = errors.New("model produced no usable output")
	// ErrFlowNotFound 未注册的 flow
	ErrFlowNotFound = errors.New("flow not found")
	// ErrModelNotConfigured flow 需要的模型未配置
	ErrModelNotConfigured = errors.New("model not configured")
)

// ErrorKind 错误分类，供传输层映射状态码
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindValidation  ErrorKind = "validation"
	KindInvocation  ErrorKind = "invocation"
	KindEmptyOutput ErrorKind = "empty_output"
	KindNotFound    ErrorKind = "not_found"
	KindInternal    ErrorKind = "internal"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError 输入校验失败，列出所有不满足约束的字段
type ValidationError struct {
	Flow   string       `json:"flow"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid input for %s: %s", e.Flow, strings.Join(parts, "; "))
}

// HasField 判断某字段是否校验失败
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// AsValidationError 提取 ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// KindOf 对错误进行分类
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrFlowNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptyOutput):
		return KindEmptyOutput
	case errors.Is(err, ErrInvocationFailed):
		return KindInvocation
	}
	if _, ok := AsValidationError(err); ok {
		return KindValidation
	}
	return KindInternal
}

// IsGenerationFailure 调用失败与空输出对调用方等价
func IsGenerationFailure(err error) bool {
	k := KindOf(err)
	return k == KindInvocation || k == KindEmptyOutput
}
