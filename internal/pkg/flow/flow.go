package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"

	"github.com/greendental/backend/internal/utils"
)

// ExtraModelName 模型实现可在回复的 Extra 中写入实际使用的模型名
const ExtraModelName = "model_name"

// Definition 一个 flow 的完整定义：输入约束、提示词、输出结构和归一化规则
// 通过 New 构建，构建后不可修改
type Definition[In any, Out any] struct {
	Name        string
	Title       string
	Description string
	// Visual 为 true 时使用视觉模型，并通过 Attachment 附带图片
	Visual   bool
	Template Template
	// Disclaimer 模型未返回免责声明时使用的固定文案
	Disclaimer string
	// Normalize flow 自定义的归一化规则，可为空
	Normalize func(out *Out)
	// Attachment 返回需要随提示词发送的图片 data URI
	Attachment func(in *In) string
	// Decode 自定义回复解析，为空时按 JSON 对象解析并在提示词中附带输出 Schema
	Decode func(reply *schema.Message) (*Out, error)

	instruction string
	input       json.RawMessage
}

// Info flow 描述信息
type Info struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Visual      bool            `json:"visual"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// Result 一次调用的结果
type Result[Out any] struct {
	Flow    string             `json:"flow"`
	Output  *Out               `json:"output"`
	Model   string             `json:"model,omitempty"`
	Usage   *schema.TokenUsage `json:"usage,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`
}

// Outcome 类型擦除后的调用结果
type Outcome struct {
	Flow    string
	Output  any
	Model   string
	Usage   *schema.TokenUsage
	Elapsed time.Duration
}

// Flow 类型擦除的 flow，供 HTTP 与 CLI 按名称调用
type Flow interface {
	Info() Info
	Invoke(ctx context.Context, rt *Runtime, raw []byte) (*Outcome, error)
}

// Runtime flow 执行依赖，进程内共享且只读
type Runtime struct {
	Validator *Validator
	// Text 文本类 flow 使用的模型
	Text model.BaseChatModel
	// Vision 图片类 flow 使用的模型
	Vision model.BaseChatModel
	Env    Env
	// Timeout 单次模型调用超时，0 表示不限制
	Timeout time.Duration
}

var defaultValidator = sync.OnceValue(NewValidator)

func (rt *Runtime) validator() *Validator {
	if rt.Validator == nil {
		return defaultValidator()
	}
	return rt.Validator
}

func (rt *Runtime) modelFor(visual bool) (model.BaseChatModel, error) {
	if visual {
		if rt.Vision == nil {
			return nil, fmt.Errorf("%w: vision model", ErrModelNotConfigured)
		}
		return rt.Vision, nil
	}
	if rt.Text == nil {
		return nil, fmt.Errorf("%w: text model", ErrModelNotConfigured)
	}
	return rt.Text, nil
}

// New 校验并构建 flow 定义
func New[In any, Out any](d Definition[In, Out]) (*Definition[In, Out], error) {
	if d.Name == "" {
		return nil, errors.New("flow name is required")
	}
	if strings.TrimSpace(d.Disclaimer) == "" {
		return nil, fmt.Errorf("flow %s: fallback disclaimer is required", d.Name)
	}
	var probe Out
	if _, ok := any(&probe).(Advised); !ok {
		return nil, fmt.Errorf("flow %s: output %T must embed flow.Advisory", d.Name, probe)
	}

	var in In
	input, err := inputSchema(&in)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", d.Name, err)
	}
	d.input = input

	if d.Decode == nil {
		instruction, err := outputInstruction(&probe)
		if err != nil {
			return nil, fmt.Errorf("flow %s: %w", d.Name, err)
		}
		d.instruction = instruction
	}
	return &d, nil
}

// Must 同 New，失败时 panic，用于进程启动时的静态定义
func Must[In any, Out any](d Definition[In, Out]) *Definition[In, Out] {
	def, err := New(d)
	if err != nil {
		panic(err)
	}
	return def
}

// Info 返回描述信息
func (d *Definition[In, Out]) Info() Info {
	return Info{
		Name:        d.Name,
		Title:       d.Title,
		Description: d.Description,
		Visual:      d.Visual,
		InputSchema: d.input,
	}
}

// Run 校验 -> 渲染 -> 调用模型 -> 解析 -> 归一化，任一步失败立即返回，不重试
func (d *Definition[In, Out]) Run(ctx context.Context, rt *Runtime, in *In) (*Result[Out], error) {
	start := time.Now()
	if in == nil {
		return nil, &ValidationError{Flow: d.Name, Fields: []FieldError{{
			Field: "input", Rule: "required", Message: "input is required",
		}}}
	}
	if err := rt.validator().Struct(d.Name, in); err != nil {
		klog.V(6).Infof("[Flow] %s 输入校验失败: %v", d.Name, err)
		return nil, err
	}

	msgs, err := d.Template.Render(ctx, in, rt.Env.Vars)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", d.Name, err)
	}
	if d.instruction != "" && len(msgs) > 0 {
		msgs[0].Content = msgs[0].Content + "\n\n" + d.instruction
	}
	if d.Attachment != nil {
		if uri := d.Attachment(in); uri != "" {
			attachImage(msgs, uri)
		}
	}

	cm, err := rt.modelFor(d.Visual)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvocationFailed, d.Name, err)
	}
	if rt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.Timeout)
		defer cancel()
	}

	klog.V(6).Infof("[Flow] %s 调用模型, messages=%d", d.Name, len(msgs))
	reply, err := cm.Generate(ctx, msgs)
	if err != nil {
		klog.Errorf("[Flow] %s 模型调用失败: %v", d.Name, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrInvocationFailed, d.Name, err)
	}
	if reply == nil {
		return nil, fmt.Errorf("%w: %s: nil reply", ErrEmptyOutput, d.Name)
	}

	decode := d.Decode
	if decode == nil {
		decode = DecodeJSON[Out]
	}
	out, err := decode(reply)
	if err != nil {
		klog.Warningf("[Flow] %s 模型输出不可用: %v", d.Name, err)
		if !errors.Is(err, ErrEmptyOutput) {
			err = fmt.Errorf("%w: %w", ErrEmptyOutput, err)
		}
		return nil, err
	}
	normalize(out, rt.Env, d.Normalize, d.Disclaimer)

	res := &Result[Out]{Flow: d.Name, Output: out, Elapsed: time.Since(start)}
	if reply.ResponseMeta != nil {
		res.Usage = reply.ResponseMeta.Usage
	}
	if name, ok := reply.Extra[ExtraModelName].(string); ok {
		res.Model = name
	}
	klog.V(6).Infof("[Flow] %s 执行完成, 耗时=%v", d.Name, res.Elapsed)
	return res, nil
}

// Invoke 解码原始 JSON 输入后执行
func (d *Definition[In, Out]) Invoke(ctx context.Context, rt *Runtime, raw []byte) (*Outcome, error) {
	in := new(In)
	if err := decodeInput(d.Name, raw, in); err != nil {
		return nil, err
	}
	res, err := d.Run(ctx, rt, in)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Flow:    res.Flow,
		Output:  res.Output,
		Model:   res.Model,
		Usage:   res.Usage,
		Elapsed: res.Elapsed,
	}, nil
}

// DecodeJSON 从模型回复中提取并解析 JSON 对象
func DecodeJSON[Out any](reply *schema.Message) (*Out, error) {
	content := strings.TrimSpace(reply.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrEmptyOutput)
	}
	raw := utils.ExtractJSON(content)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", ErrEmptyOutput)
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() || len(parsed.Map()) == 0 {
		return nil, fmt.Errorf("%w: reply is not a non-empty JSON object", ErrEmptyOutput)
	}

	out := new(Out)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyOutput, err)
	}
	return out, nil
}

// attachImage 将图片附加到最后一条用户消息，图片在前文本在后
func attachImage(msgs []*schema.Message, uri string) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role != schema.User {
			continue
		}
		m.MultiContent = []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: uri}},
			{Type: schema.ChatMessagePartTypeText, Text: m.Content},
		}
		return
	}
}
