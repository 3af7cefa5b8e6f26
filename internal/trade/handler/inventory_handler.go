package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/huakang/medtrade/internal/trade/service"
	"go.uber.org/zap"
)

// InventoryHandler 库存处理器
type InventoryHandler struct {
	svc    *service.InventoryService
	logger *zap.Logger
}

func NewInventoryHandler(svc *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, logger: logger}
}

// List 批次库存列表
func (h *InventoryHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.InventoryListParams{
		TenantID: c.Query("tenant_id"),
		DrugID:   c.Query("drug_id"),
		Page:     page,
		PageSize: pageSize,
	}
	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{
		Items:      items,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// Get 批次详情
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, item)
}

// CreateBatch 手工入库
func (h *InventoryHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	item, err := h.svc.CreateBatch(c.Request.Context(), GetActor(c), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, item)
}

// Adjust 库存盘点调整
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	item, err := h.svc.Adjust(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, item)
}

// ListTransactions 库存流水
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	page, pageSize := GetPagination(c)
	txs, total, err := h.svc.ListTransactions(c.Request.Context(), GetActor(c),
		c.Query("inventory_item_id"), page, pageSize)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{
		Items:      txs,
		Pagination: NewPagination(page, pageSize, total),
	})
}
