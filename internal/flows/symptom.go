package flows

import "github.com/greendental/backend/internal/pkg/flow"

const symptomCheckerDisclaimer = "This is a preliminary AI-generated assessment and not a diagnosis. Please consult a dentist for a proper examination and treatment. If you have severe pain, swelling or bleeding, seek dental care immediately."

// SymptomCheckerInput 症状自查输入
type SymptomCheckerInput struct {
	Symptoms string `json:"symptoms" validate:"required,min=10" msg:"Please describe your symptoms in at least 10 characters." jsonschema_description:"A description of the dental symptoms the user is experiencing."`
}

// SymptomCheckerOutput 症状自查结果
type SymptomCheckerOutput struct {
	Assessment string `json:"assessment" jsonschema_description:"A preliminary assessment of the symptoms."`
	Urgency    string `json:"urgency" jsonschema_description:"A recommendation on the urgency of seeking dental care (e.g. immediate, within 24 hours, within a week, not urgent)."`
	flow.Advisory
}

// SymptomChecker 根据症状给出初步评估和就诊紧急程度
var SymptomChecker = flow.Must(flow.Definition[SymptomCheckerInput, SymptomCheckerOutput]{
	Name:        "symptom-checker",
	Title:       "AI Symptom Checker",
	Description: "Describe your dental symptoms and get a preliminary assessment with an urgency recommendation.",
	Disclaimer:  symptomCheckerDisclaimer,
	Template: flow.Template{
		System: `You are an AI-powered dental symptom checker. A user will describe their symptoms, and you will provide a preliminary assessment and a recommendation on the urgency of seeking dental care.
Consider factors such as pain level, bleeding, swelling, and potential for infection. Be clear about the limitations of the assessment and always recommend that the user consult with a dentist for proper diagnosis and treatment.
Include this disclaimer: "` + symptomCheckerDisclaimer + `"`,
		User: `Symptoms: {{.symptoms}}

Based on these symptoms, provide a brief assessment and an urgency recommendation.`,
	},
})

const emergencyAdvisorDisclaimer = "This guidance is AI-generated and only meant to help until you receive professional care. It is not a substitute for treatment. Please contact a dentist or emergency service as soon as possible."

// EmergencyAdvisorInput 急症描述
type EmergencyAdvisorInput struct {
	EmergencyDescription string `json:"emergencyDescription" validate:"required,min=15" msg:"Please describe the emergency in at least 15 characters." jsonschema_description:"A description of the dental emergency, including symptoms and any relevant details."`
}

// EmergencyAdvisorOutput 急症处理建议
type EmergencyAdvisorOutput struct {
	ImmediateGuidance string `json:"immediateGuidance" jsonschema_description:"Immediate guidance and steps to take while waiting for professional dental help."`
	flow.Advisory
}

// EmergencyAdvisor 牙科急症的即时处理建议
var EmergencyAdvisor = flow.Must(flow.Definition[EmergencyAdvisorInput, EmergencyAdvisorOutput]{
	Name:        "emergency-advisor",
	Title:       "AI Emergency Dental Advisor",
	Description: "Get immediate steps to take for a dental emergency while you wait for professional help.",
	Disclaimer:  emergencyAdvisorDisclaimer,
	Template: flow.Template{
		System: `You are a helpful AI assistant providing immediate guidance for dental emergencies.
Based on the user's description of their dental emergency, provide clear and concise steps they can take while waiting for professional help.
Include a disclaimer advising them to seek professional dental care as soon as possible.`,
		User: `Emergency Description: {{.emergencyDescription}}`,
	},
})
