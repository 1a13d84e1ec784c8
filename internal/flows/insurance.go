package flows

import "github.com/greendental/backend/internal/pkg/flow"

const insuranceDisclaimer = "This information is AI-generated guidance based on the details you provided and general knowledge of dental insurance. It is NOT a guarantee of coverage. Please verify all details, coverage, and costs directly with your insurance provider before proceeding with any treatment."

// InsuranceInput 保险方案与治疗项目
type InsuranceInput struct {
	InsuranceProvider      string   `json:"insuranceProvider" validate:"required,min=2" msg:"Insurance provider name is required (e.g., Delta Dental, MetLife)." jsonschema_description:"The name of the dental insurance provider."`
	PlanDetails            string   `json:"planDetails" validate:"required,min=20" msg:"Please provide some key details about your plan (at least 20 characters)." jsonschema_description:"Key details of the dental insurance plan (e.g. 'PPO, covers 80% for major restorative after $50 deductible')."`
	DentalProcedure        string   `json:"dentalProcedure" validate:"required,min=5" msg:"Please describe the dental procedure (at least 5 characters)." jsonschema_description:"The dental procedure for which coverage information is sought."`
	EstimatedProcedureCost *float64 `json:"estimatedProcedureCost,omitempty" validate:"omitempty,gt=0" msg:"Estimated cost must be a positive number." jsonschema_description:"Optional estimated cost of the procedure, if known."`
}

// InsuranceOutput 保险覆盖分析
type InsuranceOutput struct {
	CoverageGuidance        string `json:"coverageGuidance" jsonschema_description:"How the described plan might apply to the procedure."`
	EstimatedOutOfPocket    string `json:"estimatedOutOfPocket" jsonschema_description:"A general estimation of out-of-pocket expenses, clearly stated as an estimate."`
	PotentialLimitations    string `json:"potentialLimitations" jsonschema_description:"Waiting periods, annual maximums, frequency limits, or pre-authorization needs."`
	NextStepsRecommendation string `json:"nextStepsRecommendation" jsonschema_description:"Questions to ask the insurance provider or information to gather."`
	flow.Advisory
}

// InsuranceHelper 解读保险方案对某项治疗的覆盖情况
var InsuranceHelper = flow.Must(flow.Definition[InsuranceInput, InsuranceOutput]{
	Name:        "insurance-helper",
	Title:       "AI Dental Insurance Helper",
	Description: "Understand how your dental insurance plan might cover a specific procedure.",
	Disclaimer:  insuranceDisclaimer,
	Template: flow.Template{
		System: `You are an AI assistant designed to help users understand potential dental insurance coverage for a specific procedure.
Your goal is to provide helpful guidance based on the information they provide about their insurance plan and the dental procedure.
You are NOT an insurance provider and CANNOT guarantee coverage.

Provide the following:
1. coverageGuidance: analyze how the described plan details might apply to the procedure. Mention typical coverage patterns if plan details are vague, but caution that specifics vary.
2. estimatedOutOfPocket: a general idea of potential out-of-pocket costs (deductibles, copayments, coinsurance). If an estimated procedure cost is provided, use it. Explicitly state this is an estimate.
3. potentialLimitations: annual maximums, waiting periods, frequency limits, or the need for pre-authorization as they relate to the procedure.
4. nextStepsRecommendation: what the user should do next, such as questions to ask their insurance company, procedure codes to inquire about, or the importance of a pre-treatment estimate.
5. disclaimer: "` + insuranceDisclaimer + `"

Be clear, concise and empathetic. Avoid making definitive statements about coverage.`,
		User: `User's Insurance Provider: {{.insuranceProvider}}
User's Plan Details: {{.planDetails}}
Dental Procedure in Question: {{.dentalProcedure}}
{{if .estimatedProcedureCost}}User's Estimated Cost for Procedure: {{.estimatedProcedureCost}}
{{end}}`,
	},
})
