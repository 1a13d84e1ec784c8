package flow

import (
	"reflect"
	"strings"
)

// Advisory 所有 flow 输出都必须嵌入的免责声明字段
type Advisory struct {
	Disclaimer string `json:"disclaimer" jsonschema_description:"Mandatory disclaimer shown to the user with this result."`
}

// Advice 返回嵌入的 Advisory，供归一化阶段填充默认值
func (a *Advisory) Advice() *Advisory { return a }

// Advised 输出结构体通过嵌入 Advisory 自动满足该接口
type Advised interface {
	Advice() *Advisory
}

// Env 归一化和模板渲染的运行期配置
type Env struct {
	// Placeholders 占位符 -> 替换值，作用于输出的所有字符串字段
	Placeholders map[string]string
	// Vars 额外的模板变量，输入字段同名时以输入为准
	Vars map[string]any
}

func (e Env) replacer() *strings.Replacer {
	if len(e.Placeholders) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(e.Placeholders)*2)
	for token, value := range e.Placeholders {
		if token == "" {
			continue
		}
		pairs = append(pairs, token, value)
	}
	if len(pairs) == 0 {
		return nil
	}
	return strings.NewReplacer(pairs...)
}

// ReplaceTokens 递归替换结构体中所有字符串字段里的占位符
func ReplaceTokens(v any, r *strings.Replacer) {
	if r == nil || v == nil {
		return
	}
	replaceValue(reflect.ValueOf(v), r)
}

func replaceValue(v reflect.Value, r *strings.Replacer) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			replaceValue(v.Elem(), r)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				replaceValue(v.Field(i), r)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			replaceValue(v.Index(i), r)
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(r.Replace(v.String()))
		}
	}
}

// DefaultList 列表为空时返回只含默认项的列表
func DefaultList[T any](list []T, def T) []T {
	if len(list) == 0 {
		return []T{def}
	}
	return list
}

// DefaultText 空白文本返回默认值
func DefaultText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// normalize 归一化顺序：占位符替换 -> flow 自定义规则 -> 免责声明兜底
func normalize[Out any](out *Out, env Env, rule func(*Out), fallback string) {
	ReplaceTokens(out, env.replacer())
	if rule != nil {
		rule(out)
	}
	if adv, ok := any(out).(Advised); ok {
		a := adv.Advice()
		a.Disclaimer = DefaultText(a.Disclaimer, fallback)
	}
}
