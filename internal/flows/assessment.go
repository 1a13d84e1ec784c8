package flows

import "github.com/greendental/backend/internal/pkg/flow"

const oralHealthDisclaimer = "This AI-generated assessment is for informational purposes only and is not a diagnosis. Please book a check-up with a dentist for a professional evaluation of your oral health."

// OralHealthInput 口腔健康自评输入
type OralHealthInput struct {
	Symptoms           string `json:"symptoms" validate:"required,min=5" msg:"Please describe any symptoms (at least 5 characters, or 'none')." jsonschema_description:"Symptoms such as pain, sensitivity, bleeding, or swelling."`
	OralHygieneRoutine string `json:"oralHygieneRoutine" validate:"required,min=10" msg:"Please describe your oral hygiene routine (at least 10 characters)." jsonschema_description:"Current oral hygiene routine including frequency of brushing and flossing."`
	Diet               string `json:"diet" validate:"required,min=10" msg:"Please describe your diet (at least 10 characters)." jsonschema_description:"The user's diet and consumption of sugary drinks."`
	MedicalConditions  string `json:"medicalConditions" validate:"required,min=5" msg:"Please list any medical conditions (at least 5 characters, or 'none')." jsonschema_description:"Existing medical conditions."`
	Medications        string `json:"medications" validate:"required,min=5" msg:"Please list any medications (at least 5 characters, or 'none')." jsonschema_description:"Medications the user is currently taking."`
}

// OralHealthOutput 口腔健康评估
type OralHealthOutput struct {
	Summary         string `json:"summary" jsonschema_description:"A summary of the user's oral health status."`
	Recommendations string `json:"recommendations" jsonschema_description:"Recommendations for improvement based on the assessment."`
	RiskFactors     string `json:"riskFactors" jsonschema_description:"Identified risk factors for oral health problems."`
	NextSteps       string `json:"nextSteps" jsonschema_description:"Suggested next steps, such as consulting a dentist or improving hygiene practices."`
	flow.Advisory
}

// OralHealthAssessment 根据症状、习惯和病史评估口腔健康
var OralHealthAssessment = flow.Must(flow.Definition[OralHealthInput, OralHealthOutput]{
	Name:        "oral-health-assessment",
	Title:       "AI Oral Health Assessment",
	Description: "Answer a few questions about your habits and health to get an overview of your oral health.",
	Disclaimer:  oralHealthDisclaimer,
	Template: flow.Template{
		System: `You are an AI-powered oral health assessment tool. Analyze the information provided by the user and provide a summary of their oral health status, recommendations for improvement, identified risk factors, and suggested next steps.
Do not diagnose. Include a disclaimer that this is not a substitute for a professional dental examination.`,
		User: `Symptoms: {{.symptoms}}
Oral Hygiene Routine: {{.oralHygieneRoutine}}
Diet: {{.diet}}
Medical Conditions: {{.medicalConditions}}
Medications: {{.medications}}`,
	},
})

const dentalCareTipsDisclaimer = "These AI-generated tips are general guidance and do not replace personalized advice from your dentist or hygienist."

// DentalCareTipsInput 个性化护理建议输入
type DentalCareTipsInput struct {
	Age                int    `json:"age" validate:"required,min=1,max=120" msg:"Please enter a valid age between 1 and 120." jsonschema_description:"The age of the user."`
	DietaryHabits      string `json:"dietaryHabits" validate:"required,min=10" msg:"Please describe your dietary habits (at least 10 characters)." jsonschema_description:"Description of the user's dietary habits."`
	OralHygieneRoutine string `json:"oralHygieneRoutine" validate:"required,min=10" msg:"Please describe your oral hygiene routine (at least 10 characters)." jsonschema_description:"The user's current oral hygiene routine."`
	DentalHistory      string `json:"dentalHistory" validate:"required,min=10" msg:"Please describe your dental history (at least 10 characters)." jsonschema_description:"The user's dental history, including any existing conditions."`
}

// DentalCareTipsOutput 护理建议
type DentalCareTipsOutput struct {
	Recommendations string `json:"recommendations" jsonschema_description:"Personalized oral hygiene recommendations."`
	flow.Advisory
}

// DentalCareTips 个性化的日常口腔护理建议
var DentalCareTips = flow.Must(flow.Definition[DentalCareTipsInput, DentalCareTipsOutput]{
	Name:        "dental-care-tips",
	Title:       "AI Dental Care Tips",
	Description: "Get personalized oral hygiene recommendations based on your age, diet and routine.",
	Disclaimer:  dentalCareTipsDisclaimer,
	Template: flow.Template{
		System: `You are an AI assistant providing personalized oral hygiene recommendations based on the user's information.
Provide detailed and actionable recommendations that the user can easily follow.`,
		User: `Age: {{.age}}
Dietary Habits: {{.dietaryHabits}}
Oral Hygiene Routine: {{.oralHygieneRoutine}}
Dental History: {{.dentalHistory}}`,
	},
})
