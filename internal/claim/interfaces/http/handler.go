// Package http 理赔服务 HTTP 接口层
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/claim/application"
	"github.com/wyfcoding/policyadmin/internal/claim/domain"
	"gorm.io/gorm"
)

// Handler 理赔 HTTP 处理器
type Handler struct {
	commandService *application.CommandService
	queryService   *application.QueryService
}

// NewHandler 创建 HTTP 处理器
func NewHandler(commandService *application.CommandService, queryService *application.QueryService) *Handler {
	return &Handler{
		commandService: commandService,
		queryService:   queryService,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	claims := r.Group("/claims")
	{
		claims.POST("", h.CreateClaim)
		claims.POST("/:id/status", h.RequestStatusChange)
		claims.POST("/:id/reserve", h.AdjustReserve)
		claims.POST("/:id/payments", h.RecordPayment)
		claims.GET("/:id", h.GetClaim)
	}
}

// CreateClaimRequest 报案请求体
type CreateClaimRequest struct {
	PolicyID    string `json:"policy_id" binding:"required"`
	Description string `json:"description" binding:"required"`
	Reserve     string `json:"reserve" binding:"required"`
	Actor       string `json:"actor" binding:"required"`
}

// CreateClaim 首次报案
func (h *Handler) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reserve, err := decimal.NewFromString(req.Reserve)
	if err != nil || reserve.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reserve amount"})
		return
	}

	claim, err := h.commandService.CreateClaim(c.Request.Context(), req.PolicyID, req.Description, reserve, req.Actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"claim_id": claim.ClaimID, "status": claim.Status})
}

// StatusChangeRequest 状态变更请求体
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
	Notes  string `json:"notes"`
}

// RequestStatusChange 请求状态变更，异步应用
func (h *Handler) RequestStatusChange(c *gin.Context) {
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.commandService.RequestStatusChange(c.Request.Context(), c.Param("id"), domain.Status(req.Status), req.Actor, req.Notes)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"claim_id": c.Param("id"), "requested_status": req.Status})
}

// AdjustReserveRequest 准备金调整请求体
type AdjustReserveRequest struct {
	Amount string `json:"amount" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
	Notes  string `json:"notes" binding:"required"`
}

// AdjustReserve 审计调整准备金
func (h *Handler) AdjustReserve(c *gin.Context) {
	var req AdjustReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	if err := h.commandService.AdjustReserve(c.Request.Context(), c.Param("id"), amount, req.Actor, req.Notes); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim_id": c.Param("id")})
}

// RecordPaymentRequest 赔付记录请求体
type RecordPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// RecordPayment 记录赔付
func (h *Handler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	if err := h.commandService.RecordPayment(c.Request.Context(), c.Param("id"), amount); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim_id": c.Param("id")})
}

// GetClaim 查询理赔
func (h *Handler) GetClaim(c *gin.Context) {
	claim, err := h.queryService.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, claim)
}

// writeDomainError 将领域错误映射为 HTTP 状态
func writeDomainError(c *gin.Context, err error) {
	var invalid *domain.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
