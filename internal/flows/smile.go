package flows

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/greendental/backend/internal/pkg/flow"
)

const smileDesignDisclaimer = "This AI-generated image is an artistic preview only. It does not represent a guaranteed treatment outcome. Please book a consultation with our dentists to discuss what is achievable for your smile."

// DefaultDesignNotes 模型只返回图片时使用
const DefaultDesignNotes = "No specific design notes were generated. The image shows the requested preview."

// SmileDesignInput 照片与期望效果
type SmileDesignInput struct {
	UserPhotoDataURI        string `json:"userPhotoDataUri" validate:"required,imagedatauri" msg:"Please upload a JPEG, PNG or WebP photo (base64 data URI)." jsonschema_description:"The user's current photo as a data URI: 'data:<mimetype>;base64,<encoded_data>'."`
	DesiredSmileDescription string `json:"desiredSmileDescription" validate:"required,min=10" msg:"Please describe the changes you would like (at least 10 characters)." jsonschema_description:"The desired smile changes (e.g. 'whiter teeth', 'close gap between front teeth')."`
}

// SmileDesignOutput 效果预览图与说明
type SmileDesignOutput struct {
	PreviewImageDataURI string `json:"previewImageDataUri"`
	DesignNotes         string `json:"designNotes"`
	flow.Advisory
}

// SmileDesignPreview 基于用户照片生成微笑设计预览图
var SmileDesignPreview = flow.Must(flow.Definition[SmileDesignInput, SmileDesignOutput]{
	Name:        "smile-design-preview",
	Title:       "AI Smile Design Preview",
	Description: "Upload a photo and describe your ideal smile to see an AI-generated preview.",
	Visual:      true,
	Disclaimer:  smileDesignDisclaimer,
	Template: flow.Template{
		System: `You are a virtual smile design assistant. Focus on realistic and aesthetically pleasing modifications.`,
		User: `Based on the provided photo and the desired smile description: "{{.desiredSmileDescription}}", generate an image that previews these smile changes on the person in the photo. Also, provide brief design notes related to the changes shown in the image, explaining what was modified.`,
	},
	Attachment: func(in *SmileDesignInput) string {
		return in.UserPhotoDataURI
	},
	Decode: decodeSmileDesign,
	Normalize: func(out *SmileDesignOutput) {
		out.DesignNotes = flow.DefaultText(out.DesignNotes, DefaultDesignNotes)
	},
})

// decodeSmileDesign 取回复中的第一张图片，文本作为设计说明
func decodeSmileDesign(reply *schema.Message) (*SmileDesignOutput, error) {
	for _, part := range reply.MultiContent {
		if part.Type != schema.ChatMessagePartTypeImageURL || part.ImageURL == nil {
			continue
		}
		if !strings.HasPrefix(part.ImageURL.URL, "data:") {
			continue
		}
		return &SmileDesignOutput{
			PreviewImageDataURI: part.ImageURL.URL,
			DesignNotes:         strings.TrimSpace(reply.Content),
		}, nil
	}
	return nil, fmt.Errorf("%w: image generation did not return an image", flow.ErrEmptyOutput)
}
