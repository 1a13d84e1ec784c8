package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greendental/backend/internal/model"
	"github.com/greendental/backend/internal/repository"
	"github.com/greendental/backend/internal/service"
	"k8s.io/klog/v2"
)

// APIKeyHandler 模型池 API Key 处理器
type APIKeyHandler struct {
	service service.APIKeyService
}

// NewAPIKeyHandler 创建 API Key 处理器
func NewAPIKeyHandler(service service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *APIKeyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api-keys", h.ListAPIKeys)
	router.POST("/api-keys", h.CreateAPIKey)
	router.GET("/api-keys/stats", h.GetStats)
	router.GET("/api-keys/:id", h.GetAPIKey)
	router.PUT("/api-keys/:id", h.UpdateAPIKey)
	router.DELETE("/api-keys/:id", h.DeleteAPIKey)
	router.PATCH("/api-keys/:id/status", h.UpdateStatus)
}

// UpdateStatusRequest 更新状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"` // enabled/disabled
}

// APIKeyResponse API Key 响应（脱敏）
type APIKeyResponse struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Provider         string     `json:"provider"`
	BaseURL          string     `json:"base_url"`
	APIKey           string     `json:"api_key"` // 脱敏后
	Model            string     `json:"model"`
	Priority         int        `json:"priority"`
	Status           string     `json:"status"`
	RequestCount     int        `json:"request_count"`
	ErrorCount       int        `json:"error_count"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	RateLimitResetAt *time.Time `json:"rate_limit_reset_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CreateAPIKey 创建 API Key 配置
func (h *APIKeyHandler) CreateAPIKey(c *gin.Context) {
	var req service.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("CreateAPIKey: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apiKey, err := h.service.CreateAPIKey(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("CreateAPIKey: failed: %v", err)
		c.JSON(apiKeyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toAPIKeyResponse(apiKey))
}

// GetAPIKey 获取 API Key 配置
func (h *APIKeyHandler) GetAPIKey(c *gin.Context) {
	apiKeyID, ok := parseID(c)
	if !ok {
		return
	}

	apiKey, err := h.service.GetAPIKey(c.Request.Context(), apiKeyID)
	if err != nil {
		c.JSON(apiKeyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toAPIKeyResponse(apiKey))
}

// ListAPIKeys 列出所有 API Key 配置
func (h *APIKeyHandler) ListAPIKeys(c *gin.Context) {
	apiKeys, err := h.service.ListAPIKeys(c.Request.Context())
	if err != nil {
		klog.Errorf("ListAPIKeys: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]*APIKeyResponse, 0, len(apiKeys))
	for _, apiKey := range apiKeys {
		responses = append(responses, toAPIKeyResponse(apiKey))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  responses,
		"total": len(responses),
	})
}

// UpdateAPIKey 更新 API Key 配置
func (h *APIKeyHandler) UpdateAPIKey(c *gin.Context) {
	apiKeyID, ok := parseID(c)
	if !ok {
		return
	}

	var req service.UpdateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("UpdateAPIKey: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apiKey, err := h.service.UpdateAPIKey(c.Request.Context(), apiKeyID, &req)
	if err != nil {
		klog.Errorf("UpdateAPIKey: failed: %v", err)
		c.JSON(apiKeyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toAPIKeyResponse(apiKey))
}

// DeleteAPIKey 删除 API Key 配置
func (h *APIKeyHandler) DeleteAPIKey(c *gin.Context) {
	apiKeyID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteAPIKey(c.Request.Context(), apiKeyID); err != nil {
		klog.Errorf("DeleteAPIKey: failed: %v", err)
		c.JSON(apiKeyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted successfully"})
}

// UpdateStatus 更新状态
func (h *APIKeyHandler) UpdateStatus(c *gin.Context) {
	apiKeyID, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("UpdateStatus: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateAPIKeyStatus(c.Request.Context(), apiKeyID, req.Status); err != nil {
		klog.Errorf("UpdateStatus: failed: %v", err)
		c.JSON(apiKeyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated successfully"})
}

// GetStats 获取统计信息
func (h *APIKeyHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		klog.Errorf("GetStats: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func apiKeyErrorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrAPIKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAPIKeyDuplicate):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// toAPIKeyResponse 转换为响应对象（脱敏 API Key）
func toAPIKeyResponse(apiKey *model.APIKey) *APIKeyResponse {
	return &APIKeyResponse{
		ID:               apiKey.ID,
		Name:             apiKey.Name,
		Provider:         apiKey.Provider,
		BaseURL:          apiKey.BaseURL,
		APIKey:           apiKey.MaskAPIKey(),
		Model:            apiKey.Model,
		Priority:         apiKey.Priority,
		Status:           apiKey.Status,
		RequestCount:     apiKey.RequestCount,
		ErrorCount:       apiKey.ErrorCount,
		LastUsedAt:       apiKey.LastUsedAt,
		RateLimitResetAt: apiKey.RateLimitResetAt,
		CreatedAt:        apiKey.CreatedAt,
		UpdatedAt:        apiKey.UpdatedAt,
	}
}
