package models

import "testing"

func TestCanTransition_AllowedEdges(t *testing.T) {
	allowed := []struct {
		from, to OrderStatus
	}{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusShipped},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
	}

	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_IllegalEdgesSweep(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	}

	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
		OrderStatusConfirmed: {OrderStatusShipped: true, OrderStatusCancelled: true},
		OrderStatusShipped:   {OrderStatusDelivered: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_TerminalStates(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	}

	for _, to := range all {
		if CanTransition(OrderStatusDelivered, to) {
			t.Errorf("DELIVERED must be terminal, allowed -> %s", to)
		}
		if CanTransition(OrderStatusCancelled, to) {
			t.Errorf("CANCELLED must be terminal, allowed -> %s", to)
		}
	}
}

func TestValidOrderStatus(t *testing.T) {
	if !ValidOrderStatus(OrderStatusShipped) {
		t.Error("Expected SHIPPED to be a valid status")
	}
	if ValidOrderStatus(OrderStatus("ENVIADO")) {
		t.Error("Expected ENVIADO to be rejected")
	}
	if ValidOrderStatus(OrderStatus("")) {
		t.Error("Expected empty status to be rejected")
	}
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := &InvalidTransitionError{From: OrderStatusDelivered, To: OrderStatusPending}

	want := "No se puede cambiar de DELIVERED a PENDING"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
