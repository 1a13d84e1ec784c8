package flow

import (
	"encoding/json"
	"fmt"

	"github.com/eino-contrib/jsonschema"
)

// reflectSchema 由 Go 结构体生成内联的 JSON Schema
func reflectSchema(v any) (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(v)
	if s == nil {
		return nil, fmt.Errorf("reflect schema for %T", v)
	}
	return s, nil
}

// outputInstruction 生成附加在 system 提示词后的输出格式约定
func outputInstruction(out any) (string, error) {
	s, err := reflectSchema(out)
	if err != nil {
		return "", err
	}
	s.Version = ""
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output schema: %w", err)
	}
	return "Respond with a single JSON object and nothing else. " +
		"The object must conform to this JSON Schema:\n" + string(data), nil
}

// inputSchema 生成输入结构的 JSON Schema，供列表接口描述 flow
func inputSchema(in any) (json.RawMessage, error) {
	s, err := reflectSchema(in)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode input schema: %w", err)
	}
	return data, nil
}
