// Package http 保单服务 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/policy/application"
	"github.com/wyfcoding/policyadmin/internal/policy/domain"
	"gorm.io/gorm"
)

// Handler 保单 HTTP 处理器
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
	policies := r.Group("/policies")
	{
		policies.POST("", h.CreatePolicy)
		policies.PUT("/:id", h.UpdatePolicy)
		policies.POST("/:id/status", h.ChangeStatus)
		policies.POST("/:id/documents", h.AddDocument)
		policies.GET("/:id", h.GetPolicy)
		policies.GET("", h.ListPolicies)
	}
}

// CoverageRequest 保障请求体
type CoverageRequest struct {
	Code       string `json:"code" binding:"required"`
	Limit      string `json:"limit" binding:"required"`
	Deductible string `json:"deductible"`
}

// CreatePolicyRequest 创建保单请求体
type CreatePolicyRequest struct {
	HolderID    string            `json:"holder_id" binding:"required"`
	ProductCode string            `json:"product_code" binding:"required"`
	Premium     string            `json:"premium" binding:"required"`
	Coverages   []CoverageRequest `json:"coverages" binding:"required,min=1"`
}

// CreatePolicy 创建保单
func (h *Handler) CreatePolicy(c *gin.Context) {
	var req CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	premium, err := decimal.NewFromString(req.Premium)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid premium"})
		return
	}

	coverages, err := toCoverageInputs(req.Coverages)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy, err := h.commandService.CreatePolicy(c.Request.Context(), application.CreatePolicyCommand{
		HolderID:    req.HolderID,
		ProductCode: req.ProductCode,
		Premium:     premium,
		Coverages:   coverages,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"policy_id": policy.PolicyID, "status": policy.Status})
}

// UpdatePolicyRequest 更新保单请求体
type UpdatePolicyRequest struct {
	Premium   string            `json:"premium" binding:"required"`
	Coverages []CoverageRequest `json:"coverages"`
	Actor     string            `json:"actor" binding:"required"`
}

// UpdatePolicy 更新保单
func (h *Handler) UpdatePolicy(c *gin.Context) {
	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	premium, err := decimal.NewFromString(req.Premium)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid premium"})
		return
	}

	coverages, err := toCoverageInputs(req.Coverages)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.commandService.UpdatePolicy(c.Request.Context(), c.Param("id"), premium, coverages, req.Actor); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy_id": c.Param("id")})
}

// ChangeStatusRequest 状态迁移请求体
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
}

// ChangeStatus 请求状态迁移
func (h *Handler) ChangeStatus(c *gin.Context) {
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.commandService.ChangeStatus(c.Request.Context(), c.Param("id"), domain.Status(req.Status), req.Actor)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy_id": c.Param("id"), "status": req.Status})
}

// AddDocumentRequest 附加文档请求体
type AddDocumentRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

// AddDocument 附加保单文档
func (h *Handler) AddDocument(c *gin.Context) {
	var req AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.commandService.AddDocument(c.Request.Context(), c.Param("id"), req.Name, req.URL); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"policy_id": c.Param("id")})
}

// GetPolicy 查询保单
func (h *Handler) GetPolicy(c *gin.Context) {
	policy, err := h.queryService.GetPolicy(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, policy)
}

// ListPolicies 分页查询保单
func (h *Handler) ListPolicies(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	policies, err := h.queryService.ListPolicies(c.Request.Context(), domain.Status(c.Query("status")), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"policies": policies})
}

func toCoverageInputs(reqs []CoverageRequest) ([]application.CoverageInput, error) {
	inputs := make([]application.CoverageInput, 0, len(reqs))
	for _, cov := range reqs {
		limit, err := decimal.NewFromString(cov.Limit)
		if err != nil {
			return nil, errors.New("invalid coverage limit")
		}
		deductible := decimal.Zero
		if cov.Deductible != "" {
			deductible, err = decimal.NewFromString(cov.Deductible)
			if err != nil {
				return nil, errors.New("invalid coverage deductible")
			}
		}
		inputs = append(inputs, application.CoverageInput{
			Code:       cov.Code,
			Limit:      limit,
			Deductible: deductible,
		})
	}
	return inputs, nil
}

// writeDomainError 将领域错误映射为 HTTP 状态
func writeDomainError(c *gin.Context, err error) {
	var invalid *domain.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
