// Package domain 保单领域层
// 生成摘要：
// 1) 定义保单聚合根与承保信息
// 2) 定义保单生命周期状态机
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/event"
	"gorm.io/gorm"
)

// Status 保单状态
type Status string

const (
	StatusDraft     Status = "DRAFT"     // 草稿
	StatusQuoted    Status = "QUOTED"    // 已报价
	StatusBound     Status = "BOUND"     // 已承保
	StatusActive    Status = "ACTIVE"    // 生效中
	StatusCancelled Status = "CANCELLED" // 已退保
	StatusExpired   Status = "EXPIRED"   // 已到期
)

// UnderwritingInfo 承保信息
type UnderwritingInfo struct {
	// 风险评分（0~100），承保前为空
	RiskScore *float64 `gorm:"column:uw_risk_score"`
	// 审批人
	ApprovedBy string `gorm:"column:uw_approved_by;type:varchar(64)"`
	// 核保备注
	Notes string `gorm:"column:uw_notes;type:varchar(512)"`
}

// Policy 保单聚合根。不做物理删除，gorm.Model 的 DeletedAt 承担软删除，
// 所有读路径经由 GORM 自动过滤已删除记录。
type Policy struct {
	gorm.Model
	PolicyID    string          `gorm:"column:policy_id;type:varchar(32);uniqueIndex;not null"`
	HolderID    string          `gorm:"column:holder_id;type:varchar(32);index;not null"`
	ProductCode string          `gorm:"column:product_code;type:varchar(32);not null"`
	Status      Status          `gorm:"column:status;type:varchar(16);not null;default:'DRAFT'"`
	Premium     decimal.Decimal `gorm:"column:premium;type:decimal(18,2)"`

	// 承保信息
	Underwriting UnderwritingInfo `gorm:"embedded"`

	// 承保方侧的外部引用，首次同步成功前为空
	CarrierRef *string `gorm:"column:carrier_ref;type:varchar(64)"`
	// 承保方侧的版本号，用于幂等更新
	CarrierVersion int `gorm:"column:carrier_version;not null;default:0"`

	Coverages []Coverage       `gorm:"foreignKey:PolicyRef;references:PolicyID"`
	Documents []PolicyDocument `gorm:"foreignKey:PolicyRef;references:PolicyID"`

	// 领域事件
	domainEvents []event.Payloader `gorm:"-"`
}

// TableName 表名
func (Policy) TableName() string {
	return "policies"
}

// Coverage 险种保障
type Coverage struct {
	gorm.Model
	PolicyRef  string          `gorm:"column:policy_ref;type:varchar(32);index;not null"`
	Code       string          `gorm:"column:code;type:varchar(32);not null"`
	Limit      decimal.Decimal `gorm:"column:limit_amount;type:decimal(18,2)"`
	Deductible decimal.Decimal `gorm:"column:deductible;type:decimal(18,2)"`
}

// TableName 表名
func (Coverage) TableName() string {
	return "policy_coverages"
}

// PolicyDocument 保单文档
type PolicyDocument struct {
	gorm.Model
	PolicyRef string `gorm:"column:policy_ref;type:varchar(32);index;not null"`
	Name      string `gorm:"column:name;type:varchar(128);not null"`
	URL       string `gorm:"column:url;type:varchar(512);not null"`
}

// TableName 表名
func (PolicyDocument) TableName() string {
	return "policy_documents"
}

// NewPolicy 创建保单，初始状态 DRAFT
func NewPolicy(policyID, holderID, productCode string, premium decimal.Decimal, coverages []Coverage) *Policy {
	p := &Policy{
		PolicyID:     policyID,
		HolderID:     holderID,
		ProductCode:  productCode,
		Status:       StatusDraft,
		Premium:      premium,
		Coverages:    coverages,
		domainEvents: make([]event.Payloader, 0),
	}

	p.addEvent(&PolicyCreatedEvent{
		PolicyID:    policyID,
		HolderID:    holderID,
		ProductCode: productCode,
		Premium:     premium,
		Timestamp:   time.Now(),
	})

	return p
}

// TransitionTo 请求状态迁移。非法迁移返回 InvalidTransitionError，
// 绝不静默纠正为"最接近的合法状态"。
func (p *Policy) TransitionTo(requested Status, actor string) error {
	if err := CanTransition(p.Status, requested, p); err != nil {
		return err
	}

	from := p.Status
	p.Status = requested

	p.addEvent(&PolicyStatusChangedEvent{
		PolicyID:   p.PolicyID,
		FromStatus: from,
		ToStatus:   requested,
		Actor:      actor,
		Timestamp:  time.Now(),
	})

	return nil
}

// UpdatePremium 更新保费与保障
func (p *Policy) UpdatePremium(premium decimal.Decimal, coverages []Coverage, actor string) {
	p.Premium = premium
	if coverages != nil {
		p.Coverages = coverages
	}

	p.addEvent(&PolicyUpdatedEvent{
		PolicyID:  p.PolicyID,
		Premium:   premium,
		Actor:     actor,
		Timestamp: time.Now(),
	})
}

// SetRiskScore 写入核保风险评分
func (p *Policy) SetRiskScore(score float64, notes string) {
	p.Underwriting.RiskScore = &score
	if notes != "" {
		p.Underwriting.Notes = notes
	}
}

// Approve 写入核保审批人
func (p *Policy) Approve(approver string) {
	p.Underwriting.ApprovedBy = approver
}

// AttachCarrierRef 记录承保方外部引用与版本
func (p *Policy) AttachCarrierRef(ref string, version int) {
	p.CarrierRef = &ref
	p.CarrierVersion = version
}

// AddDocument 附加保单文档
func (p *Policy) AddDocument(name, url string) {
	p.Documents = append(p.Documents, PolicyDocument{
		PolicyRef: p.PolicyID,
		Name:      name,
		URL:       url,
	})
}

func (p *Policy) addEvent(e event.Payloader) {
	p.domainEvents = append(p.domainEvents, e)
}

// GetDomainEvents 取出待发布的领域事件
func (p *Policy) GetDomainEvents() []event.Payloader {
	return p.domainEvents
}

// ClearDomainEvents 清空领域事件
func (p *Policy) ClearDomainEvents() {
	p.domainEvents = nil
}
