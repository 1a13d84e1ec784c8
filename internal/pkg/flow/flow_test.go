package flow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greendental/backend/internal/pkg/flow"
	"github.com/greendental/backend/internal/pkg/flow/flowtest"
)

const testDisclaimer = "This is general information only."

type guideInput struct {
	Topic   string  `json:"topic" validate:"required,min=3" msg:"Please enter a topic (at least 3 characters)."`
	Note    *string `json:"note,omitempty"`
	ZipCode string  `json:"zipCode,omitempty" validate:"omitempty,zipcode"`
}

type guideSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type guideOutput struct {
	Summary  string         `json:"summary"`
	Steps    string         `json:"steps"`
	Sections []guideSection `json:"sections"`
	flow.Advisory
}

func newGuideFlow(t *testing.T) *flow.Definition[guideInput, guideOutput] {
	t.Helper()
	def, err := flow.New(flow.Definition[guideInput, guideOutput]{
		Name:  "guide",
		Title: "Guide",
		Template: flow.Template{
			System: "You write guides for {{.clinicName}}.",
			User:   "Topic: {{.topic}}\n{{if .note}}Note: {{.note}}\n{{end}}{{if .zipCode}}ZIP: {{.zipCode}}{{end}}",
		},
		Disclaimer: testDisclaimer,
		Normalize: func(out *guideOutput) {
			out.Sections = flow.DefaultList(out.Sections, guideSection{Title: "Information", Content: "Nothing yet."})
		},
	})
	require.NoError(t, err)
	return def
}

func newRuntime(m *flowtest.ChatModel) *flow.Runtime {
	return &flow.Runtime{
		Text: m,
		Env: flow.Env{
			Placeholders: map[string]string{"[PHONE]": "0208 800 7373"},
			Vars:         map[string]any{"clinicName": "The Green Dental Surgery"},
		},
	}
}

func TestRunValidationShortCircuits(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"x"}`)
	def := newGuideFlow(t)

	_, err := def.Run(context.Background(), newRuntime(m), &guideInput{Topic: "ab"})
	verr, ok := flow.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.True(t, verr.HasField("topic"))
	assert.Equal(t, "Please enter a topic (at least 3 characters).", verr.Fields[0].Message)
	assert.Equal(t, flow.KindValidation, flow.KindOf(err))
	assert.Equal(t, 0, m.Calls())
}

func TestRunZipCodeRule(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"x","steps":"y"}`)
	def := newGuideFlow(t)
	rt := newRuntime(m)

	_, err := def.Run(context.Background(), rt, &guideInput{Topic: "braces", ZipCode: "1234"})
	verr, ok := flow.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "zipcode", verr.Fields[0].Rule)

	_, err = def.Run(context.Background(), rt, &guideInput{Topic: "braces", ZipCode: "12345-6789"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Calls())
}

func TestRunFillsMissingDisclaimer(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"Brush twice daily.","steps":"Floss."}`)
	res, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "brushing"})
	require.NoError(t, err)
	assert.Equal(t, testDisclaimer, res.Output.Disclaimer)
	assert.Equal(t, "Brush twice daily.", res.Output.Summary)
}

func TestRunBlankDisclaimerIsReplaced(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"ok","disclaimer":"   "}`)
	res, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "brushing"})
	require.NoError(t, err)
	assert.Equal(t, testDisclaimer, res.Output.Disclaimer)
}

func TestRunKeepsModelDisclaimer(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"ok","disclaimer":"Ask your dentist."}`)
	res, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "brushing"})
	require.NoError(t, err)
	assert.Equal(t, "Ask your dentist.", res.Output.Disclaimer)
}

func TestRunReplacesPlaceholdersEverywhere(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"Call [PHONE].","steps":"Ring [PHONE] or [PHONE].",` +
		`"sections":[{"title":"Contact","content":"Phone: [PHONE]"}]}`)
	res, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "booking"})
	require.NoError(t, err)

	out := res.Output
	assert.Equal(t, "Call 0208 800 7373.", out.Summary)
	assert.Equal(t, "Ring 0208 800 7373 or 0208 800 7373.", out.Steps)
	assert.Equal(t, "Phone: 0208 800 7373", out.Sections[0].Content)
	for _, s := range []string{out.Summary, out.Steps, out.Sections[0].Content} {
		assert.NotContains(t, s, "[PHONE]")
	}
}

func TestRunDefaultSection(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"ok","sections":[]}`)
	res, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "gums"})
	require.NoError(t, err)
	require.Len(t, res.Output.Sections, 1)
	assert.Equal(t, "Information", res.Output.Sections[0].Title)
}

func TestRunEmptyOutput(t *testing.T) {
	cases := map[string]string{
		"blank":      "   ",
		"prose":      "Sorry, I cannot help with that.",
		"empty":      "{}",
		"array":      `["a"]`,
		"wrong type": `{"summary": 12}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			m := flowtest.NewChatModel(content)
			_, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "gums"})
			if !errors.Is(err, flow.ErrEmptyOutput) {
				t.Fatalf("expected ErrEmptyOutput, got %v", err)
			}
			if !flow.IsGenerationFailure(err) {
				t.Fatalf("expected generation failure")
			}
		})
	}
}

func TestRunNilReply(t *testing.T) {
	m := &flowtest.ChatModel{}
	_, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "gums"})
	if flow.KindOf(err) != flow.KindEmptyOutput {
		t.Fatalf("expected empty output, got %v", err)
	}
}

func TestRunInvocationFailure(t *testing.T) {
	m := flowtest.NewFailingChatModel(errors.New("connection reset"))
	_, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "gums"})
	if !errors.Is(err, flow.ErrInvocationFailed) {
		t.Fatalf("expected ErrInvocationFailed, got %v", err)
	}
	if m.Calls() != 1 {
		t.Fatalf("expected exactly one call without retry, got %d", m.Calls())
	}
}

func TestRunCancelledContext(t *testing.T) {
	m := &flowtest.ChatModel{GenerateFunc: func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGuideFlow(t).Run(ctx, newRuntime(m), &guideInput{Topic: "gums"})
	assert.ErrorIs(t, err, flow.ErrInvocationFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMissingModel(t *testing.T) {
	_, err := newGuideFlow(t).Run(context.Background(), &flow.Runtime{}, &guideInput{Topic: "gums"})
	assert.ErrorIs(t, err, flow.ErrInvocationFailed)
	assert.ErrorIs(t, err, flow.ErrModelNotConfigured)
}

func TestRunIsIdempotent(t *testing.T) {
	m := flowtest.NewChatModel("```json\n{\"summary\":\"Call [PHONE]\",\"steps\":\"\"}\n```")
	def := newGuideFlow(t)
	rt := newRuntime(m)
	in := &guideInput{Topic: "whitening"}

	first, err := def.Run(context.Background(), rt, in)
	require.NoError(t, err)
	second, err := def.Run(context.Background(), rt, in)
	require.NoError(t, err)
	assert.Equal(t, first.Output, second.Output)
}

func TestRunRendersPrompt(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"ok"}`)
	def := newGuideFlow(t)
	rt := newRuntime(m)

	_, err := def.Run(context.Background(), rt, &guideInput{Topic: "  implants  "})
	require.NoError(t, err)
	msgs := m.LastInput()
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "You write guides for The Green Dental Surgery."))
	assert.Contains(t, msgs[0].Content, "JSON Schema")
	assert.Contains(t, msgs[0].Content, `"summary"`)
	assert.Equal(t, "Topic: implants\n", msgs[1].Content)

	blank := "   "
	_, err = def.Run(context.Background(), rt, &guideInput{Topic: "implants", Note: &blank})
	require.NoError(t, err)
	assert.NotContains(t, m.LastInput()[1].Content, "Note:")

	note := "nervous patient"
	_, err = def.Run(context.Background(), rt, &guideInput{Topic: "implants", Note: &note, ZipCode: "90210"})
	require.NoError(t, err)
	assert.Equal(t, "Topic: implants\nNote: nervous patient\nZIP: 90210", m.LastInput()[1].Content)
}

func TestInvokeDecodesRawInput(t *testing.T) {
	m := flowtest.NewChatModel(`{"summary":"ok"}`)
	def := newGuideFlow(t)

	out, err := def.Invoke(context.Background(), newRuntime(m), []byte(`{"topic":"veneers","extra":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "guide", out.Flow)
	assert.Equal(t, testDisclaimer, out.Output.(*guideOutput).Disclaimer)

	_, err = def.Invoke(context.Background(), newRuntime(m), []byte(`{"topic":12}`))
	verr, ok := flow.AsValidationError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "topic", verr.Fields[0].Field)
	assert.Equal(t, "type", verr.Fields[0].Rule)

	_, err = def.Invoke(context.Background(), newRuntime(m), nil)
	_, ok = flow.AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Calls())
}

func TestRunUsageAndModelName(t *testing.T) {
	reply := schema.AssistantMessage(`{"summary":"ok"}`, nil)
	reply.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
	reply.Extra = map[string]any{flow.ExtraModelName: "primary"}
	m := &flowtest.ChatModel{Reply: reply}

	res, err := newGuideFlow(t).Run(context.Background(), newRuntime(m), &guideInput{Topic: "gums"})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Usage.TotalTokens)
	assert.Equal(t, "primary", res.Model)
}

type bareOutput struct {
	Summary string `json:"summary"`
}

func TestNewRequiresAdvisory(t *testing.T) {
	_, err := flow.New(flow.Definition[guideInput, bareOutput]{Name: "bare", Disclaimer: testDisclaimer})
	if err == nil {
		t.Fatalf("expected error for output without disclaimer field")
	}
	_, err = flow.New(flow.Definition[guideInput, guideOutput]{Name: "nodisclaimer"})
	if err == nil {
		t.Fatalf("expected error for missing fallback disclaimer")
	}
}

type photoInput struct {
	Photo string `json:"photo" validate:"required,imagedatauri"`
}

type photoOutput struct {
	Image string `json:"image"`
	flow.Advisory
}

func TestVisualFlowAttachesImage(t *testing.T) {
	def := flow.Must(flow.Definition[photoInput, photoOutput]{
		Name:       "photo",
		Visual:     true,
		Template:   flow.Template{System: "Edit photos.", User: "Make it brighter."},
		Disclaimer: testDisclaimer,
		Attachment: func(in *photoInput) string { return in.Photo },
		Decode: func(reply *schema.Message) (*photoOutput, error) {
			return &photoOutput{Image: reply.Content}, nil
		},
	})
	text := flowtest.NewChatModel("unused")
	vision := flowtest.NewChatModel("data:image/png;base64,AAAA")
	rt := &flow.Runtime{Text: text, Vision: vision}

	_, err := def.Run(context.Background(), rt, &photoInput{Photo: "not-a-uri"})
	_, ok := flow.AsValidationError(err)
	require.True(t, ok)

	res, err := def.Run(context.Background(), rt, &photoInput{Photo: "data:image/jpeg;base64,/9j/4AAQ"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", res.Output.Image)
	assert.Equal(t, testDisclaimer, res.Output.Disclaimer)
	assert.Equal(t, 0, text.Calls())

	msgs := vision.LastInput()
	assert.NotContains(t, msgs[0].Content, "JSON Schema")
	user := msgs[len(msgs)-1]
	require.Len(t, user.MultiContent, 2)
	assert.Equal(t, schema.ChatMessagePartTypeImageURL, user.MultiContent[0].Type)
	assert.Equal(t, "data:image/jpeg;base64,/9j/4AAQ", user.MultiContent[0].ImageURL.URL)
	assert.Equal(t, "Make it brighter.", user.MultiContent[1].Text)
}
