package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/huakang/medtrade/internal/trade/service"
	"go.uber.org/zap"
)

// SupplyHandler 供应信息处理器
type SupplyHandler struct {
	svc    *service.SupplyService
	logger *zap.Logger
}

func NewSupplyHandler(svc *service.SupplyService, logger *zap.Logger) *SupplyHandler {
	return &SupplyHandler{svc: svc, logger: logger}
}

// Create 发布供应信息
func (h *SupplyHandler) Create(c *gin.Context) {
	var req service.CreateSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	info, err := h.svc.Create(c.Request.Context(), GetActor(c), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, info)
}

// Update 更新供应信息
func (h *SupplyHandler) Update(c *gin.Context) {
	var req service.UpdateSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	info, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, info)
}

// Get 供应信息详情
func (h *SupplyHandler) Get(c *gin.Context) {
	info, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, info)
}

// List 供应信息列表。mine=1 时只看本企业（含下架），否则市场视图只展示上架。
func (h *SupplyHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.SupplyListParams{
		DrugID:   c.Query("drug_id"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	actor := GetActor(c)
	if c.Query("mine") == "1" {
		params.TenantID = actor.TenantID
	} else if params.Status == "" {
		params.Status = "ACTIVE"
	}

	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{
		Items:      items,
		Pagination: NewPagination(page, pageSize, total),
	})
}
