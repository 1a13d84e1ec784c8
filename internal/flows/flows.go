// Package flows 诊所网站的全部 AI 工具定义
package flows

import (
	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/pkg/flow"
)

// PhonePlaceholder 提示词要求模型写入的电话占位符，归一化时替换为诊所电话
const PhonePlaceholder = "[PHONE_NUMBER_PLACEHOLDER]"

// VarClinicName 模板中的诊所名称变量
const VarClinicName = "clinicName"

const defaultClinicName = "The Green Dental Surgery"

// NewEnv 根据诊所配置构建归一化和模板环境
func NewEnv(clinic config.ClinicConfig) flow.Env {
	name := clinic.Name
	if name == "" {
		name = defaultClinicName
	}
	env := flow.Env{
		Vars: map[string]any{VarClinicName: name},
	}
	if clinic.Phone != "" {
		env.Placeholders = map[string]string{PhonePlaceholder: clinic.Phone}
	}
	return env
}

// All 按展示顺序返回所有 flow
func All() []flow.Flow {
	return []flow.Flow{
		SymptomChecker,
		EmergencyAdvisor,
		AppointmentAssistant,
		TreatmentPlanner,
		TreatmentCostCalculator,
		InsuranceHelper,
		OralHealthAssessment,
		DentalCareTips,
		PatientEducation,
		PostTreatmentCare,
		DentalAnxietySupport,
		SmileDesignPreview,
	}
}

// NewRegistry 注册所有 flow
func NewRegistry() (*flow.Registry, error) {
	return flow.NewRegistry(All()...)
}
