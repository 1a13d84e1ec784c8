package flows

import "github.com/greendental/backend/internal/pkg/flow"

const patientEducationDisclaimer = "This information is for educational purposes only and should not be considered a substitute for diagnosis or treatment by a qualified dental professional. Always consult with your dentist or other qualified healthcare provider with any questions you may have regarding a medical condition or dental health."

// DefaultEducationSection 模型未返回任何章节时使用
var DefaultEducationSection = EducationSection{
	Title:   "Information",
	Content: "No detailed sections were generated for this topic.",
}

// PatientEducationInput 科普主题
type PatientEducationInput struct {
	Topic string `json:"topic" validate:"required,min=3" msg:"Please enter a dental topic (at least 3 characters)." jsonschema_description:"The dental health topic the user wants to learn about (e.g. 'gum disease', 'how to floss properly')."`
}

// EducationSection 科普内容的一个章节
type EducationSection struct {
	Title   string `json:"title" jsonschema_description:"The title of this section (e.g. Causes, Symptoms, Prevention)."`
	Content string `json:"content" jsonschema_description:"The detailed content for this section."`
}

// PatientEducationOutput 科普内容
type PatientEducationOutput struct {
	TopicTitle   string             `json:"topicTitle" jsonschema_description:"The confirmed or refined title of the topic."`
	Introduction string             `json:"introduction" jsonschema_description:"A brief introduction to the topic."`
	Sections     []EducationSection `json:"sections" jsonschema_description:"Sections breaking down the topic."`
	KeyTakeaways string             `json:"keyTakeaways,omitempty" jsonschema_description:"A few key takeaway points, if applicable."`
	flow.Advisory
}

// PatientEducation 分章节的口腔健康科普
var PatientEducation = flow.Must(flow.Definition[PatientEducationInput, PatientEducationOutput]{
	Name:        "patient-education",
	Title:       "AI Patient Education",
	Description: "Learn about any dental health topic in clear, easy-to-understand sections.",
	Disclaimer:  patientEducationDisclaimer,
	Template: flow.Template{
		System: `You are an AI Dental Health Educator. Your goal is to provide clear, accurate, and easy-to-understand information on dental health topics.

Structure the information as follows:
1. topicTitle: confirm or refine the topic title based on the user's input.
2. introduction: a brief overview of the topic.
3. sections: break the topic down into logical sections (e.g. What is it?, Causes, Symptoms, Prevention, Treatment Options, Self-Care Tips). Each section has a clear title and detailed content. Aim for 2-5 informative sections.
4. keyTakeaways (optional but recommended): summarize 2-3 main points if applicable.
5. disclaimer: include this exact disclaimer: "` + patientEducationDisclaimer + `"

Ensure the information is reliable and accessible for a general audience. Avoid technical jargon where possible, or explain it if necessary.`,
		User: `The user wants to learn about: {{.topic}}`,
	},
	Normalize: func(out *PatientEducationOutput) {
		out.Sections = flow.DefaultList(out.Sections, DefaultEducationSection)
	},
})

const postTreatmentDisclaimer = "This is general AI-generated advice for post-treatment care. It is NOT a substitute for the specific instructions provided by your dentist or oral surgeon who performed the procedure. Always follow their personalized guidance. If you have any concerns or urgent issues, contact your dental office immediately."

// PostTreatmentInput 术后护理输入
type PostTreatmentInput struct {
	DentalProcedurePerformed string `json:"dentalProcedurePerformed" validate:"required,min=5" msg:"Please describe the dental procedure performed (at least 5 characters)." jsonschema_description:"The dental procedure that was performed."`
	PatientSpecifics         string `json:"patientSpecifics,omitempty" jsonschema_description:"Optional patient-specific details relevant to recovery (e.g. 'non-smoker, allergic to codeine')."`
}

// PostTreatmentOutput 术后护理指南
type PostTreatmentOutput struct {
	GeneralInstructions string `json:"generalInstructions" jsonschema_description:"General post-operative instructions: diet, oral hygiene, activity restrictions."`
	PainManagement      string `json:"painManagement" jsonschema_description:"Advice on managing pain and discomfort, without specific dosages."`
	SwellingAndBruising string `json:"swellingAndBruising" jsonschema_description:"Managing swelling and bruising, or a statement that it is not typically expected."`
	BleedingControl     string `json:"bleedingControl" jsonschema_description:"Controlling minor bleeding and what counts as excessive."`
	ExpectedSymptoms    string `json:"expectedSymptoms" jsonschema_description:"Common symptoms during recovery and their typical duration."`
	WhenToCallDentist   string `json:"whenToCallDentist" jsonschema_description:"Warning signs that warrant contacting the dentist immediately."`
	FollowUpAppointment string `json:"followUpAppointment" jsonschema_description:"Whether a follow-up appointment is typically required and why."`
	flow.Advisory
}

// PostTreatmentCare 术后护理的一般性指导
var PostTreatmentCare = flow.Must(flow.Definition[PostTreatmentInput, PostTreatmentOutput]{
	Name:        "post-treatment-care",
	Title:       "AI Post-Treatment Care Guide",
	Description: "Get general aftercare instructions for a dental procedure you have had.",
	Disclaimer:  postTreatmentDisclaimer,
	Template: flow.Template{
		System: `You are an AI assistant providing post-treatment care guidance for dental procedures.
Your goal is to offer general, helpful, and safe aftercare instructions.
You are NOT the treating dentist and CANNOT provide advice tailored to an individual's unique situation or the exact way the procedure was performed. Your advice must be general.

Provide the following in a clear, easy-to-understand and empathetic tone:
1. generalInstructions: what the patient should do or avoid (diet, oral hygiene, activity levels), based on common knowledge for the procedure type.
2. painManagement: general advice for managing discomfort. Do not prescribe specific dosages.
3. swellingAndBruising: how to manage it if common for this procedure. If not, state that.
4. bleedingControl: what to do for minor bleeding if expected. Specify what is normal vs. excessive.
5. expectedSymptoms: common, normal symptoms during recovery and their usual timeline.
6. whenToCallDentist: clear warning signs that mean the patient should contact their dentist or seek urgent care.
7. followUpAppointment: whether a follow-up is usually needed and its purpose.
8. disclaimer: include this exact disclaimer: "` + postTreatmentDisclaimer + `"

Prioritize safety. If unsure about a detail, give general advice or state that specific instructions should come from the treating dentist.
For 'teeth whitening', bleeding control or swelling sections might state 'Not typically expected for this procedure.'
If patient specifics mention an allergy to a pain reliever, suggest alternatives without being overly prescriptive.`,
		User: `Dental Procedure Performed: {{.dentalProcedurePerformed}}
{{if .patientSpecifics}}Patient-Specific Considerations (use for context, but keep advice general): {{.patientSpecifics}}
{{end}}`,
	},
})
