package domain

import "fmt"

// InvalidTransitionError 非法状态迁移，指明尝试的状态对，不可重试
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid claim status transition: %s -> %s", e.From, e.To)
}

// claimTransitions 理赔状态迁移表
var claimTransitions = map[Status][]Status{
	StatusNew:         {StatusUnderReview, StatusDenied},
	StatusUnderReview: {StatusPendingInfo, StatusApproved, StatusDenied},
	StatusPendingInfo: {StatusUnderReview, StatusDenied},
	StatusApproved:    {StatusInPayment, StatusDenied},
	StatusInPayment:   {StatusPaid, StatusDenied},
	StatusPaid:        {StatusClosed, StatusReopened},
	StatusDenied:      {StatusClosed, StatusReopened},
	StatusClosed:      {StatusReopened},
	StatusReopened:    {StatusUnderReview},
}

// CanTransition 纯校验函数：迁移表之外的任何状态对一律拒绝
func CanTransition(current, requested Status) error {
	allowed, ok := claimTransitions[current]
	if !ok {
		return &InvalidTransitionError{From: string(current), To: string(requested)}
	}
	for _, s := range allowed {
		if s == requested {
			return nil
		}
	}
	return &InvalidTransitionError{From: string(current), To: string(requested)}
}
