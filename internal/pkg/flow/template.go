package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Template flow 的提示词模板，system + user 两段，使用 Go text/template 语法
//
// 可选字段用 {{if .field}}...{{end}} 包裹，字段缺失或为空白时整段不输出。
type Template struct {
	System string
	User   string
}

// Render 用输入和附加变量渲染提示词
func (t Template) Render(ctx context.Context, in any, extra map[string]any) ([]*schema.Message, error) {
	vars, err := templateVars(in, extra)
	if err != nil {
		return nil, err
	}
	tpl := prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(t.System),
		schema.UserMessage(t.User),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	return msgs, nil
}

// templateVars 将输入展开为以 JSON 字段名为 key 的变量表
// 字符串去除首尾空白，nil 转为空字符串，保证 {{if}} 仅做存在性判断
func templateVars(in any, extra map[string]any) (map[string]any, error) {
	vars := make(map[string]any, len(extra)+8)
	for k, v := range extra {
		vars[k] = v
	}
	if in == nil {
		return vars, nil
	}

	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode template vars: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode template vars: %w", err)
	}
	// omitempty 字段缺失时补空值，模板里的 {{if .x}} 不会因缺 key 报错
	for _, name := range fieldNames(in) {
		if _, ok := fields[name]; !ok {
			fields[name] = nil
		}
	}
	for k, v := range fields {
		switch val := v.(type) {
		case nil:
			vars[k] = ""
		case string:
			vars[k] = strings.TrimSpace(val)
		default:
			vars[k] = val
		}
	}
	return vars, nil
}

func fieldNames(in any) []string {
	t := reflect.TypeOf(in)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if name := jsonFieldName(sf); name != "" {
			names = append(names, name)
		}
	}
	return names
}
