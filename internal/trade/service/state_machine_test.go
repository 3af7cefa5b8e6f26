package service

import (
	"testing"

	"github.com/huakang/medtrade/internal/trade/entity"
)

func TestStateMachineStrictTransitions(t *testing.T) {
	sm := NewOrderStateMachine()

	allowed := []struct{ from, to string }{
		{entity.OrderStatusPending, entity.OrderStatusConfirmed},
		{entity.OrderStatusPending, entity.OrderStatusCancelledByPharmacy},
		{entity.OrderStatusPending, entity.OrderStatusCancelledBySupplier},
		{entity.OrderStatusPending, entity.OrderStatusExpiredCancelled},
		{entity.OrderStatusConfirmed, entity.OrderStatusShipped},
		{entity.OrderStatusShipped, entity.OrderStatusInTransit},
		{entity.OrderStatusInTransit, entity.OrderStatusDelivered},
		{entity.OrderStatusDelivered, entity.OrderStatusCompleted},
	}
	for _, tc := range allowed {
		if noop, err := sm.Check(tc.from, tc.to, ModeStrict); err != nil || noop {
			t.Errorf("expected %s -> %s allowed, got noop=%v err=%v", tc.from, tc.to, noop, err)
		}
	}

	denied := []struct{ from, to string }{
		{entity.OrderStatusPending, entity.OrderStatusShipped},
		{entity.OrderStatusConfirmed, entity.OrderStatusCompleted},
		{entity.OrderStatusShipped, entity.OrderStatusCancelledByPharmacy},
		{entity.OrderStatusCompleted, entity.OrderStatusShipped},
		{entity.OrderStatusCancelledByPharmacy, entity.OrderStatusConfirmed},
	}
	for _, tc := range denied {
		if _, err := sm.Check(tc.from, tc.to, ModeStrict); err == nil {
			t.Errorf("expected %s -> %s denied", tc.from, tc.to)
		}
	}
}

func TestStateMachineStrictRepeatIsConflict(t *testing.T) {
	sm := NewOrderStateMachine()
	_, err := sm.Check(entity.OrderStatusConfirmed, entity.OrderStatusConfirmed, ModeStrict)
	if err == nil {
		t.Fatal("expected conflict on repeated status in strict mode")
	}
	if _, ok := err.(*StateConflictError); !ok {
		t.Fatalf("expected StateConflictError, got %T", err)
	}
}

func TestStateMachineIdempotentRepeatIsNoop(t *testing.T) {
	sm := NewOrderStateMachine()
	noop, err := sm.Check(entity.OrderStatusInTransit, entity.OrderStatusInTransit, ModeIdempotent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !noop {
		t.Fatal("expected noop on repeated status in idempotent mode")
	}
}

func TestStateMachineCarrierTableScope(t *testing.T) {
	sm := NewOrderStateMachine()

	// 物流幂等表只覆盖配送段
	if _, err := sm.Check(entity.OrderStatusShipped, entity.OrderStatusInTransit, ModeIdempotent); err != nil {
		t.Errorf("SHIPPED -> IN_TRANSIT should be allowed for carrier: %v", err)
	}
	if _, err := sm.Check(entity.OrderStatusDelivered, entity.OrderStatusCompleted, ModeIdempotent); err != nil {
		t.Errorf("DELIVERED -> COMPLETED should be allowed for carrier: %v", err)
	}
	if _, err := sm.Check(entity.OrderStatusPending, entity.OrderStatusConfirmed, ModeIdempotent); err == nil {
		t.Error("PENDING -> CONFIRMED should not be reachable via carrier table")
	}
	if _, err := sm.Check(entity.OrderStatusShipped, entity.OrderStatusDelivered, ModeIdempotent); err == nil {
		t.Error("SHIPPED -> DELIVERED must pass through IN_TRANSIT")
	}
}

func TestStateMachineTerminalStates(t *testing.T) {
	sm := NewOrderStateMachine()
	terminals := []string{
		entity.OrderStatusCompleted,
		entity.OrderStatusCancelledByPharmacy,
		entity.OrderStatusCancelledBySupplier,
		entity.OrderStatusExpiredCancelled,
	}
	for _, s := range terminals {
		if !sm.IsTerminal(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	if sm.IsTerminal(entity.OrderStatusPending) {
		t.Error("PENDING should not be terminal")
	}
}
