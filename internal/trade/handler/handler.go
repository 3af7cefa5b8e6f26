package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/huakang/medtrade/internal/trade/service"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Order       *OrderHandler
	Supply      *SupplyHandler
	Inventory   *InventoryHandler
	Circulation *CirculationHandler
	Tenant      *TenantHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, repos *repository.Repositories, logger *zap.Logger) *Handlers {
	return &Handlers{
		Order:       NewOrderHandler(svc.Order, logger),
		Supply:      NewSupplyHandler(svc.Supply, logger),
		Inventory:   NewInventoryHandler(svc.Inventory, logger),
		Circulation: NewCirculationHandler(svc.Circulation, logger),
		Tenant:      NewTenantHandler(repos.Tenant, logger),
	}
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPagination 构造分页信息
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Fail 错误响应，消息统一放在 msg 字段
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"msg": msg})
}

// HandleError 按服务层错误类型映射HTTP状态码
func HandleError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validationErr    *service.ValidationError
		authorizationErr *service.AuthorizationError
		notFoundErr      *service.NotFoundError
		stateConflictErr *service.StateConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		Fail(c, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stateConflictErr):
		Fail(c, http.StatusBadRequest, stateConflictErr.Error())
	case errors.As(err, &authorizationErr):
		Fail(c, http.StatusForbidden, authorizationErr.Error())
	case errors.As(err, &notFoundErr):
		Fail(c, http.StatusNotFound, notFoundErr.Error())
	default:
		logger.Error("Unhandled service error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		Fail(c, http.StatusInternalServerError, "服务器内部错误")
	}
}

// GetActor 从上下文取当前操作者（由JWT中间件写入）
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:   c.GetString("user_id"),
		Role:     c.GetString("role"),
		TenantID: c.GetString("tenant_id"),
	}
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
