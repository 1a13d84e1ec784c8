package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greendental/backend/config"
)

// ClinicHandler 诊所联系方式，只读
type ClinicHandler struct {
	clinic config.ClinicConfig
}

func NewClinicHandler(clinic config.ClinicConfig) *ClinicHandler {
	return &ClinicHandler{clinic: clinic}
}

func (h *ClinicHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/clinic", h.Get)
}

func (h *ClinicHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.clinic)
}
