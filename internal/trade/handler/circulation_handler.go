package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huakang/medtrade/internal/trade/service"
	"go.uber.org/zap"
)

// CirculationHandler 流通追溯处理器
type CirculationHandler struct {
	svc    *service.CirculationService
	logger *zap.Logger
}

func NewCirculationHandler(svc *service.CirculationService, logger *zap.Logger) *CirculationHandler {
	return &CirculationHandler{svc: svc, logger: logger}
}

// Report 物流节点上报
func (h *CirculationHandler) Report(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	record, err := h.svc.Report(c.Request.Context(), GetActor(c), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, record)
}

// Records 按运单号查询流通记录
func (h *CirculationHandler) Records(c *gin.Context) {
	records, err := h.svc.Records(c.Request.Context(), GetActor(c), c.Param("tracking_number"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": records})
}
