package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"go.uber.org/zap"
)

// TenantHandler 企业信息处理器
type TenantHandler struct {
	repo   *repository.TenantRepository
	logger *zap.Logger
}

func NewTenantHandler(repo *repository.TenantRepository, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{repo: repo, logger: logger}
}

// ListLogisticsCompanies 物流公司目录（发货时选择承运方用）
func (h *TenantHandler) ListLogisticsCompanies(c *gin.Context) {
	companies, err := h.repo.ListByType(c.Request.Context(), entity.TenantTypeLogistics)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": companies})
}
