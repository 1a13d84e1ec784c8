package flows

import "github.com/greendental/backend/internal/pkg/flow"

const anxietyDisclaimer = "This guidance is AI-generated and intended for informational support only. It is not a substitute for professional psychological counseling or medical advice from your dentist. Please discuss your anxieties and any concerns directly with your dental care provider and, if needed, a mental health professional."

// AnxietyInput 焦虑描述
type AnxietyInput struct {
	AnxietyDescription string `json:"anxietyDescription" validate:"required,min=10" msg:"Please describe what makes you anxious about dental visits (at least 10 characters)." jsonschema_description:"A description of the user's dental anxiety triggers or feelings."`
}

// AnxietyOutput 缓解焦虑的建议
type AnxietyOutput struct {
	CopingStrategies     string `json:"copingStrategies" jsonschema_description:"Actionable coping strategies to try before and during a dental appointment."`
	RelaxationTechniques string `json:"relaxationTechniques" jsonschema_description:"Specific relaxation techniques (e.g. breathing exercises, visualization)."`
	PositiveAffirmations string `json:"positiveAffirmations" jsonschema_description:"Positive affirmations to help reframe anxious thoughts."`
	CommunicationTips    string `json:"communicationTips" jsonschema_description:"Tips on how to communicate anxiety with the dental team."`
	flow.Advisory
}

// DentalAnxietySupport 就诊焦虑的应对与放松建议
var DentalAnxietySupport = flow.Must(flow.Definition[AnxietyInput, AnxietyOutput]{
	Name:        "dental-anxiety-support",
	Title:       "AI Dental Anxiety Support",
	Description: "Share what worries you about dental visits and get calming, practical coping strategies.",
	Disclaimer:  anxietyDisclaimer,
	Template: flow.Template{
		System: `You are a caring and supportive AI assistant helping users manage dental anxiety.
Your goal is to provide practical, calming, and empowering advice.
You are NOT a therapist, and your advice should not replace professional help or direct communication with a dentist.

Provide the following in a kind and empathetic tone:
1. copingStrategies: 3-4 actionable strategies for before and during the visit (e.g. listening to music, using a stress ball, scheduling at low-stress times).
2. relaxationTechniques: 2-3 specific techniques with brief instructions (e.g. diaphragmatic breathing, progressive muscle relaxation, guided imagery).
3. positiveAffirmations: 3-4 short affirmations (e.g. "I am in control", "This feeling will pass").
4. communicationTips: how to communicate anxiety and needs to the dental staff (e.g. "Ask about hand signals to pause treatment").
5. disclaimer: include this exact disclaimer: "` + anxietyDisclaimer + `"

Be reassuring and focus on empowering the user. Avoid medical diagnoses or overly clinical language.`,
		User: `User's description of their anxiety: {{.anxietyDescription}}`,
	},
})
