package service

import (
	"strings"

	"github.com/huakang/medtrade/internal/trade/entity"
)

// TransitionMode 状态检查模式
type TransitionMode int

const (
	// ModeStrict 严格模式：重复提交当前状态视为冲突（确认/取消/发货/收货）
	ModeStrict TransitionMode = iota
	// ModeIdempotent 幂等模式：重复提交当前状态视为成功空操作（物流进度上报）
	ModeIdempotent
)

// OrderStateMachine 订单状态机。构造一次后只读，注入各服务使用，
// 严格流转表与物流幂等表共用同一份配置，避免两处维护产生偏差。
type OrderStateMachine struct {
	transitions map[string][]string
	carrier     map[string][]string
}

// NewOrderStateMachine 构造订单状态流转配置
func NewOrderStateMachine() *OrderStateMachine {
	return &OrderStateMachine{
		transitions: map[string][]string{
			entity.OrderStatusPending: {
				entity.OrderStatusConfirmed,
				entity.OrderStatusCancelledByPharmacy,
				entity.OrderStatusCancelledBySupplier,
				entity.OrderStatusExpiredCancelled,
			},
			entity.OrderStatusConfirmed: {entity.OrderStatusShipped},
			entity.OrderStatusShipped:   {entity.OrderStatusInTransit},
			entity.OrderStatusInTransit: {entity.OrderStatusDelivered},
			entity.OrderStatusDelivered: {entity.OrderStatusCompleted},
			// 终态：COMPLETED 及各 CANCELLED
		},
		// 物流侧只允许推进配送段
		carrier: map[string][]string{
			entity.OrderStatusShipped:   {entity.OrderStatusInTransit},
			entity.OrderStatusInTransit: {entity.OrderStatusDelivered},
			entity.OrderStatusDelivered: {entity.OrderStatusCompleted},
		},
	}
}

// IsTerminal 是否终态
func (m *OrderStateMachine) IsTerminal(status string) bool {
	return len(m.transitions[status]) == 0
}

// NextStates 当前状态在指定模式下允许推进到的状态
func (m *OrderStateMachine) NextStates(status string, mode TransitionMode) []string {
	if mode == ModeIdempotent {
		return m.carrier[status]
	}
	return m.transitions[status]
}

// Check 校验一次状态变更。幂等模式下 target==current 返回
// (noop=true, err=nil)；其余非法流转返回 StateConflictError，
// 错误信息带出当前与目标状态，并列出允许的下一状态。
func (m *OrderStateMachine) Check(current, target string, mode TransitionMode) (noop bool, err error) {
	if current == target {
		if mode == ModeIdempotent {
			return true, nil
		}
		return false, errStateConflict("订单状态未发生变化：当前已是 %s", entity.StatusDescription(current))
	}

	allowed := m.NextStates(current, mode)
	for _, next := range allowed {
		if next == target {
			return false, nil
		}
	}
	if len(allowed) > 0 {
		descs := make([]string, len(allowed))
		for i, s := range allowed {
			descs[i] = entity.StatusDescription(s)
		}
		return false, errStateConflict("不能从 %s 状态转换到 %s 状态，当前可转换：%s",
			entity.StatusDescription(current), entity.StatusDescription(target), strings.Join(descs, "、"))
	}
	return false, errStateConflict("不能从 %s 状态转换到 %s 状态",
		entity.StatusDescription(current), entity.StatusDescription(target))
}
