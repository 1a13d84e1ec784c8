package flows

import "github.com/greendental/backend/internal/pkg/flow"

const appointmentDisclaimer = "Please note: This AI tool helps gather your appointment preferences but does not book appointments directly into our system. Final confirmation of your appointment will come from our staff after you contact us."

// AppointmentInput 预约请求
type AppointmentInput struct {
	UserRequest string `json:"userRequest" validate:"required,min=10" msg:"Please describe your appointment request in at least 10 characters." jsonschema_description:"User's natural language request for an appointment (e.g. 'I need a cleaning next week')."`
}

// AppointmentOutput 预约助手的整理结果，不会真正预约
type AppointmentOutput struct {
	ConfirmationMessage string `json:"confirmationMessage" jsonschema_description:"A friendly message acknowledging the user's request."`
	ParsedService       string `json:"parsedService" jsonschema_description:"The dental service the user is requesting. 'General Consultation' or similar if not clear."`
	ParsedDateTime      string `json:"parsedDateTime" jsonschema_description:"Date or time preferences from the request. 'Flexible' or 'To be discussed' if not clear."`
	SuggestedNextSteps  string `json:"suggestedNextSteps" jsonschema_description:"Clear, actionable next steps for the user to actually book the appointment by calling or using the contact page."`
	flow.Advisory
}

// AppointmentAssistant 理解预约请求并告知如何联系诊所完成预约
var AppointmentAssistant = flow.Must(flow.Definition[AppointmentInput, AppointmentOutput]{
	Name:        "appointment-assistant",
	Title:       "AI Appointment Assistant",
	Description: "Tell us what appointment you need and when; we will help you phrase the request and show you how to book it.",
	Disclaimer:  appointmentDisclaimer,
	Template: flow.Template{
		System: `You are an AI Appointment Assistant for '{{.clinicName}}'.
Your primary goal is to understand a user's request for a dental appointment and then clearly guide them on how to officially book it using the clinic's existing methods.
You DO NOT book appointments directly into any system. You help them formulate their request and tell them how to contact the clinic.

Provide the following:
1. confirmationMessage: start with a friendly and helpful acknowledgment (e.g. "I can help with your appointment request!").
2. parsedService: the dental service the user is likely requesting.
   - If a specific service like cleaning, check-up, whitening, braces consultation, root canal inquiry or wisdom tooth problem is mentioned, use that.
   - If the user is vague (e.g. "I have a toothache"), infer a general service like "General Consultation", "Dental Check-up" or "Problem Assessment".
   - If completely unclear, state "Service to be discussed."
3. parsedDateTime: any date or time preferences mentioned, such as "next Tuesday afternoon", "weekday mornings", "ASAP". If none, use "Flexible" or "To be discussed with our team".
4. suggestedNextSteps: step-by-step instructions for making the booking. This MUST guide them to contact the clinic directly, for example:
   "To schedule your [service], please call our office at ` + PhonePlaceholder + ` or visit our 'Contact Us' page to send a booking request. Our team will then work with you to find a suitable time, considering your preferences for [date/time]."
   The actual phone number is inserted by the system later, so always write the placeholder ` + PhonePlaceholder + `.
5. disclaimer: include this exact disclaimer: "Please note: This AI tool helps gather your appointment preferences but does not book appointments directly into our system. Final confirmation of your appointment will come from our staff after you contact us using the methods above."

Keep the tone professional, friendly and helpful. Focus on making the next steps clear.`,
		User: `User's request: {{.userRequest}}`,
	},
})
