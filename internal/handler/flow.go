package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greendental/backend/internal/pkg/flow"
	"github.com/greendental/backend/internal/service"
	"github.com/greendental/backend/internal/service/orchestrator"
	"k8s.io/klog/v2"
)

// generationFailedMessage 调用失败与空输出统一返回的提示
const generationFailedMessage = "could not generate a response, please try again"

// defaultMaxBodyBytes 图片以 data URI 提交，默认放宽到 10MB
const defaultMaxBodyBytes int64 = 10 << 20

// FlowHandler AI 工具处理器
type FlowHandler struct {
	service      *service.FlowService
	maxBodyBytes int64
}

// NewFlowHandler 创建处理器，maxBodyBytes <= 0 时使用默认值
func NewFlowHandler(service *service.FlowService, maxBodyBytes int64) *FlowHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &FlowHandler{service: service, maxBodyBytes: maxBodyBytes}
}

// RegisterRoutes 注册路由
func (h *FlowHandler) RegisterRoutes(router *gin.RouterGroup) {
	flows := router.Group("/flows")
	{
		flows.GET("", h.List)
		flows.GET("/:name", h.Get)
		flows.POST("/:name", h.Invoke)
	}
	router.GET("/orchestrator/status", h.Status)
}

// Status 模型调用并发状态
func (h *FlowHandler) Status(c *gin.Context) {
	o := h.service.Orchestrator()
	if o == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "status": o.Status()})
}

// List 列出所有 flow
func (h *FlowHandler) List(c *gin.Context) {
	infos := h.service.List()
	c.JSON(http.StatusOK, gin.H{
		"data":  infos,
		"total": len(infos),
	})
}

// Get 获取 flow 描述和输入 Schema
func (h *FlowHandler) Get(c *gin.Context) {
	info, err := h.service.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Invoke 调用 flow
func (h *FlowHandler) Invoke(c *gin.Context) {
	name := c.Param("name")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			klog.V(6).Infof("Invoke: request body too large for flow %s", name)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.service.Invoke(c.Request.Context(), name, body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *FlowHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, orchestrator.ErrQueueFull) || errors.Is(err, orchestrator.ErrOrchestratorStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is busy, please try again shortly"})
		return
	}
	switch flow.KindOf(err) {
	case flow.KindValidation:
		verr, _ := flow.AsValidationError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid input",
			"fields": verr.Fields,
		})
	case flow.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case flow.KindInvocation, flow.KindEmptyOutput:
		c.JSON(http.StatusBadGateway, gin.H{"error": generationFailedMessage})
	default:
		klog.Errorf("Invoke: unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
