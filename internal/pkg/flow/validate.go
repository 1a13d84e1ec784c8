package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var zipCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Validator 基于 struct tag 的输入校验器，所有 flow 共用
//
// 约束写在 validate tag 上，自定义提示写在 msg tag 上:
//
//	Symptoms string `json:"symptoms" validate:"required,min=10" msg:"Please describe your symptoms in at least 10 characters."`
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("imagedatauri", func(fl validator.FieldLevel) bool {
		return isImageDataURI(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct 校验输入结构体，失败时返回 *ValidationError
func (v *Validator) Struct(flowName string, in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s input: %w", flowName, err)
	}

	verr := &ValidationError{Flow: flowName}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: fieldMessage(in, fe),
		})
	}
	return verr
}

// decodeInput 将原始 JSON 解码为输入结构体，类型错误转换为字段级校验错误
func decodeInput(flowName string, raw []byte, dst any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return &ValidationError{Flow: flowName, Fields: []FieldError{{
			Field: "input", Rule: "required", Message: "input is required",
		}}}
	}
	err := json.Unmarshal(raw, dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "input"
		}
		return &ValidationError{Flow: flowName, Fields: []FieldError{{
			Field:   field,
			Rule:    "type",
			Param:   typeErr.Type.String(),
			Message: fmt.Sprintf("%s must be a %s", field, typeName(typeErr.Type)),
		}}}
	}
	return &ValidationError{Flow: flowName, Fields: []FieldError{{
		Field: "input", Rule: "json", Message: "input must be a JSON object",
	}}}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func fieldMessage(in any, fe validator.FieldError) string {
	t := reflect.TypeOf(in)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if msg := sf.Tag.Get("msg"); msg != "" {
				return msg
			}
		}
	}

	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "zipcode":
		return field + " must be a valid ZIP code (e.g. 12345 or 12345-6789)"
	case "datauri":
		return field + " must be a base64 data URI"
	case "imagedatauri":
		return field + " must be a base64 data URI of a JPEG, PNG or WebP image"
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	}
	return t.String()
}
