package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/flows"
	"github.com/greendental/backend/internal/pkg/flow"
	"github.com/greendental/backend/internal/pkg/flow/flowtest"
	"github.com/greendental/backend/internal/service"
	"github.com/greendental/backend/internal/service/orchestrator"
)

func setupFlowRouter(t *testing.T, m *flowtest.ChatModel, maxBody int64) *gin.Engine {
	t.Helper()
	return setupFlowRouterWith(t, m, maxBody, nil)
}

func setupFlowRouterWith(t *testing.T, m *flowtest.ChatModel, maxBody int64, o *orchestrator.Orchestrator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry, err := flows.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}
	runtime := &flow.Runtime{Text: m, Vision: m, Env: flows.NewEnv(config.ClinicConfig{Phone: "0208 800 7373"})}
	svc := service.NewFlowService(registry, runtime, nil)
	if o != nil {
		svc.SetOrchestrator(o)
	}
	h := NewFlowHandler(svc, maxBody)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFlowHandlerList(t *testing.T) {
	r := setupFlowRouter(t, flowtest.NewChatModel("{}"), 0)

	w := doRequest(r, http.MethodGet, "/api/flows", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	var resp struct {
		Data  []flow.Info `json:"data"`
		Total int         `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 12 || len(resp.Data) != 12 {
		t.Fatalf("unexpected flow count: %d", resp.Total)
	}

	w = doRequest(r, http.MethodGet, "/api/flows/patient-education", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"input_schema"`) {
		t.Fatalf("unexpected get response: %d %s", w.Code, w.Body.String())
	}
	if w := doRequest(r, http.MethodGet, "/api/flows/unknown", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestFlowHandlerInvokeSuccess(t *testing.T) {
	m := flowtest.NewChatModel(`{"assessment":"Possible sensitivity.","urgency":"within a week"}`)
	r := setupFlowRouter(t, m, 0)

	w := doRequest(r, http.MethodPost, "/api/flows/symptom-checker", `{"symptoms":"Sharp pain when drinking cold water, started two days ago"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		RunID  string         `json:"run_id"`
		Flow   string         `json:"flow"`
		Output map[string]any `json:"output"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID == "" || resp.Flow != "symptom-checker" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Output["assessment"] == "" || resp.Output["urgency"] != "within a week" || resp.Output["disclaimer"] == "" {
		t.Fatalf("unexpected output: %+v", resp.Output)
	}
}

func TestFlowHandlerInvokeValidationError(t *testing.T) {
	m := flowtest.NewChatModel(`{}`)
	r := setupFlowRouter(t, m, 0)

	w := doRequest(r, http.MethodPost, "/api/flows/insurance-helper", `{"insuranceProvider":"D","planDetails":"short","dentalProcedure":"root canal"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Error  string            `json:"error"`
		Fields []flow.FieldError `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", resp.Fields)
	}
	if m.Calls() != 0 {
		t.Fatalf("model must not be called on invalid input")
	}

	w = doRequest(r, http.MethodPost, "/api/flows/dental-care-tips", `{"age":"thirty"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"age"`) {
		t.Fatalf("expected type error on age, got %d %s", w.Code, w.Body.String())
	}
}

func TestFlowHandlerInvokeGenerationFailure(t *testing.T) {
	cases := map[string]*flowtest.ChatModel{
		"invocation":   flowtest.NewFailingChatModel(errors.New("context deadline exceeded")),
		"empty output": flowtest.NewChatModel("Sorry, I cannot help with that."),
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			r := setupFlowRouter(t, m, 0)
			w := doRequest(r, http.MethodPost, "/api/flows/emergency-advisor", `{"emergencyDescription":"Knocked out a tooth playing football"}`)
			if w.Code != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), generationFailedMessage) {
				t.Fatalf("unexpected body: %s", w.Body.String())
			}
		})
	}
}

func TestFlowHandlerInvokeBodyTooLarge(t *testing.T) {
	m := flowtest.NewChatModel(`{}`)
	r := setupFlowRouter(t, m, 64)

	body := `{"symptoms":"` + strings.Repeat("a", 128) + `"}`
	w := doRequest(r, http.MethodPost, "/api/flows/symptom-checker", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if m.Calls() != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestFlowHandlerUnknownFlow(t *testing.T) {
	r := setupFlowRouter(t, flowtest.NewChatModel(`{}`), 0)
	if w := doRequest(r, http.MethodPost, "/api/flows/unknown", `{}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestClinicHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewClinicHandler(config.ClinicConfig{Name: "The Green Dental Surgery", Phone: "0208 800 7373"}).RegisterRoutes(r.Group("/api"))

	w := doRequest(r, http.MethodGet, "/api/clinic", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	var clinic config.ClinicConfig
	if err := json.Unmarshal(w.Body.Bytes(), &clinic); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if clinic.Phone != "0208 800 7373" {
		t.Fatalf("unexpected clinic: %+v", clinic)
	}
}

func TestFlowHandlerBusy(t *testing.T) {
	o, err := orchestrator.NewOrchestrator(1, 1)
	if err != nil {
		t.Fatalf("NewOrchestrator error: %v", err)
	}
	o.Stop(time.Second)

	m := flowtest.NewChatModel(`{}`)
	r := setupFlowRouterWith(t, m, 0, o)
	w := doRequest(r, http.MethodPost, "/api/flows/symptom-checker", `{"symptoms":"Sharp pain when drinking cold water"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if m.Calls() != 0 {
		t.Fatalf("model must not be called")
	}

	w = doRequest(r, http.MethodGet, "/api/orchestrator/status", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"enabled":true`) {
		t.Fatalf("unexpected status response: %d %s", w.Code, w.Body.String())
	}
}
