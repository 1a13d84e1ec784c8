package flows

import "github.com/greendental/backend/internal/pkg/flow"

const treatmentPlannerDisclaimer = "Remember, this information is for educational purposes only and is not a substitute for diagnosis or treatment by a qualified dental professional. Always consult your dentist for personalized advice and a treatment plan based on a clinical examination."

// TreatmentPlannerInput 病情描述
type TreatmentPlannerInput struct {
	DentalCondition string `json:"dentalCondition" validate:"required,min=20" msg:"Please describe your dental condition in at least 20 characters." jsonschema_description:"Description of the dental condition, symptoms, and any relevant medical history."`
}

// TreatmentPlannerOutput 可与牙医讨论的治疗方向
type TreatmentPlannerOutput struct {
	TreatmentRecommendations string `json:"treatmentRecommendations" jsonschema_description:"Potential treatment options and approaches for discussion with a dentist."`
	AdditionalInformation    string `json:"additionalInformation,omitempty" jsonschema_description:"Further considerations, questions to ask a dentist, and the importance of professional consultation."`
	flow.Advisory
}

// TreatmentPlanner 列出可能的治疗方案供患者与牙医讨论
var TreatmentPlanner = flow.Must(flow.Definition[TreatmentPlannerInput, TreatmentPlannerOutput]{
	Name:        "treatment-planner",
	Title:       "AI Treatment Options Suggester",
	Description: "Describe your dental condition to learn about treatment options you can discuss with your dentist.",
	Disclaimer:  treatmentPlannerDisclaimer,
	Template: flow.Template{
		System: `You are an AI Dental Treatment Options Suggester. You are NOT a dentist and cannot diagnose conditions or create definitive treatment plans.
A user will describe their dental condition, symptoms, and relevant history.

Your goal is to:
1. Provide potential treatmentRecommendations:
   - If possible, identify general categories of dental issues that might relate to the description.
   - Suggest common treatment options a dentist might consider. For a "chipped tooth" you might mention bonding, veneers or crowns.
   - Frame these as possibilities for discussion with a dental professional, not as direct advice or a definitive plan.
   - Avoid any language that sounds like a diagnosis or prescription.
2. Provide additionalInformation:
   - Suggest questions the user might ask their dentist (e.g. "What are the pros and cons of these options?", "What is the expected recovery time?").
   - Emphasize the critical importance of an in-person examination and diagnosis by a qualified dentist.
   - Mention general factors that influence treatment decisions, stating that you cannot assess these for the individual.
3. disclaimer: strongly reiterate that this information is for educational purposes only and is NOT a substitute for a consultation with a qualified dental professional.

Be empathetic and clear, and prioritize user safety by consistently encouraging professional consultation.`,
		User: `User's Dental Condition: {{.dentalCondition}}`,
	},
})

const treatmentCostDisclaimer = "IMPORTANT: This is an AI-generated estimate based on general information and the details you provided. It is NOT a quote or a guarantee of cost. Actual dental treatment costs can vary significantly based on many factors. Please consult directly with your dental provider and, if applicable, your insurance company for an accurate treatment plan and precise cost estimate before proceeding with any treatment."

// TreatmentCostInput 费用估算输入
type TreatmentCostInput struct {
	ProcedureDescription string `json:"procedureDescription" validate:"required,min=5" msg:"Please describe the dental procedure (at least 5 characters)." jsonschema_description:"The dental procedure for which a cost estimate is sought (e.g. 'Root canal on a molar')."`
	ZipCode              string `json:"zipCode,omitempty" validate:"omitempty,zipcode" msg:"Please enter a valid 5-digit or 9-digit ZIP code (e.g., 90210 or 90210-1234)." jsonschema_description:"Optional 5-digit or 9-digit ZIP code to gauge regional cost variations."`
	InsuranceInfo        string `json:"insuranceInfo,omitempty" jsonschema_description:"Optional brief description of the user's dental insurance."`
}

// TreatmentCostOutput 费用区间及影响因素
type TreatmentCostOutput struct {
	EstimatedCostRange      string `json:"estimatedCostRange" jsonschema_description:"A very general estimated cost range, clearly stated as a broad estimate."`
	FactorsInfluencingCost  string `json:"factorsInfluencingCost" jsonschema_description:"Common factors that influence the actual cost of the procedure."`
	InsuranceConsiderations string `json:"insuranceConsiderations" jsonschema_description:"General advice on how dental insurance might affect the cost."`
	flow.Advisory
}

// TreatmentCostCalculator 给出治疗费用的大致区间
var TreatmentCostCalculator = flow.Must(flow.Definition[TreatmentCostInput, TreatmentCostOutput]{
	Name:        "treatment-cost-calculator",
	Title:       "AI Treatment Cost Estimator",
	Description: "Get a broad cost range for a dental procedure and learn what affects the final price.",
	Disclaimer:  treatmentCostDisclaimer,
	Template: flow.Template{
		System: `You are an AI assistant helping users understand POTENTIAL cost ranges for dental procedures.
You CANNOT provide exact quotes. Your estimates must be very general and clearly labeled as such.

Provide the following:
1. estimatedCostRange:
   - Offer a VERY broad, general estimated cost range for the procedure in a typical US setting.
   - If the procedure is too vague or complex for a general estimate, state that clearly.
   - ALWAYS preface with "Based on general information, the estimated cost range for..."
   - ALWAYS follow with "This is a very broad estimate and actual costs can vary significantly."
2. factorsInfluencingCost: key factors such as the dentist's experience and specialty, geographic location, case complexity, materials used, clinic fees, and whether anesthesia or sedation is needed.
3. insuranceConsiderations:
   - If insurance information is provided, discuss deductibles, co-payments and co-insurance, annual maximums, in-network vs. out-of-network providers, waiting periods and pre-authorization.
   - If not, say: "If you have dental insurance, it could significantly reduce your out-of-pocket expenses. It's best to check your plan details."
   - Always recommend contacting the insurance provider for specifics.
4. disclaimer (MANDATORY, use this exact text): "` + treatmentCostDisclaimer + `"

Be helpful but cautious. Do not invent specific dollar amounts without a reasonable basis for a broad range.
If a ZIP code is provided you may mention that costs vary by region, but do not give ZIP-code specific pricing.`,
		User: `Procedure: {{.procedureDescription}}
{{if .zipCode}}ZIP Code: {{.zipCode}}
{{end}}{{if .insuranceInfo}}Insurance Information: {{.insuranceInfo}}
{{end}}`,
	},
})
