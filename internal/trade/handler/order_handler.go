package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/huakang/medtrade/internal/trade/service"
	"go.uber.org/zap"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	svc    *service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(svc *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// orderView 附带状态中文描述的订单视图
type orderView struct {
	*entity.Order
	StatusDescription string  `json:"status_description"`
	TotalAmount       float64 `json:"total_amount"`
	TotalQuantity     int     `json:"total_quantity"`
}

func toOrderView(order *entity.Order) orderView {
	return orderView{
		Order:             order,
		StatusDescription: entity.StatusDescription(order.Status),
		TotalAmount:       order.TotalAmount(),
		TotalQuantity:     order.TotalQuantity(),
	}
}

func toOrderViews(orders []entity.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}
	return views
}

// Create 创建订单
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	order, err := h.svc.Create(c.Request.Context(), GetActor(c), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, toOrderView(order))
}

// List 订单列表
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.OrderListParams{
		Status:      c.Query("status"),
		OrderNumber: c.Query("order_number"),
		Page:        page,
		PageSize:    pageSize,
	}
	orders, total, err := h.svc.List(c.Request.Context(), GetActor(c), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{
		Items:      toOrderViews(orders),
		Pagination: NewPagination(page, pageSize, total),
	})
}

// Get 订单详情
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, toOrderView(order))
}

// Confirm 供应商确认/拒绝订单
func (h *OrderHandler) Confirm(c *gin.Context) {
	var req service.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	order, err := h.svc.Confirm(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, toOrderView(order))
}

// Cancel 买方取消订单
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req service.CancelOrderRequest
	// body 可为空
	_ = c.ShouldBindJSON(&req)
	order, err := h.svc.Cancel(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, toOrderView(order))
}

// Ship 供应商发货
func (h *OrderHandler) Ship(c *gin.Context) {
	var req service.ShipOrderRequest
	_ = c.ShouldBindJSON(&req)
	order, err := h.svc.Ship(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, toOrderView(order))
}

// Receive 买方确认收货
func (h *OrderHandler) Receive(c *gin.Context) {
	var req service.ReceiveOrderRequest
	_ = c.ShouldBindJSON(&req)
	order, err := h.svc.Receive(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, toOrderView(order))
}

// UpdateStatusRequest 物流状态推进请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 物流侧推进订单状态（幂等）
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, 400, "请求参数错误: "+err.Error())
		return
	}
	order, noop, err := h.svc.UpdateStatusCarrier(c.Request.Context(), GetActor(c), c.Param("id"), req.Status)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	view := toOrderView(order)
	if noop {
		Success(c, gin.H{"msg": "状态未变化", "order": view})
		return
	}
	Success(c, view)
}

// ExpireOverdue 批量处理超时未确认订单
func (h *OrderHandler) ExpireOverdue(c *gin.Context) {
	count, err := h.svc.ExpireOverdue(c.Request.Context(), GetActor(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"expired_count": count})
}

// Timeline 订单时间线
func (h *OrderHandler) Timeline(c *gin.Context) {
	events, err := h.svc.Timeline(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": events})
}

// Stats 订单统计
func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), GetActor(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, stats)
}

// ListForLogistics 物流公司订单列表
func (h *OrderHandler) ListForLogistics(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.OrderListParams{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	orders, total, err := h.svc.ListForLogistics(c.Request.Context(), GetActor(c), params)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{
		Items:      toOrderViews(orders),
		Pagination: NewPagination(page, pageSize, total),
	})
}
