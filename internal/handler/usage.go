package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greendental/backend/internal/service"
	"k8s.io/klog/v2"
)

// UsageHandler flow 用量统计处理器
type UsageHandler struct {
	service service.FlowUsageService
}

func NewUsageHandler(service service.FlowUsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *UsageHandler) RegisterRoutes(router *gin.RouterGroup) {
	usage := router.Group("/usage")
	{
		usage.GET("/stats", h.Stats)
		usage.GET("/recent", h.Recent)
	}
}

// Stats 按 flow 汇总，days 为统计最近天数，缺省统计全部
func (h *UsageHandler) Stats(c *gin.Context) {
	var since time.Time
	if days := c.Query("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		since = time.Now().AddDate(0, 0, -n)
	}

	stats, err := h.service.Stats(c.Request.Context(), since)
	if err != nil {
		klog.Errorf("UsageStats: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats, "total": len(stats)})
}

// Recent 最近的调用记录，可按 flow 过滤
func (h *UsageHandler) Recent(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.service.Recent(c.Request.Context(), c.Query("flow"), limit)
	if err != nil {
		klog.Errorf("UsageRecent: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "total": len(records)})
}
