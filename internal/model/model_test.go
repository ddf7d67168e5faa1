package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusRefunded, true},

		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusRefunded, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_RestoresStock(t *testing.T) {
	assert.True(t, OrderStatusCancelled.RestoresStock())
	assert.True(t, OrderStatusRefunded.RestoresStock())
	assert.False(t, OrderStatusDelivered.RestoresStock())
	assert.False(t, OrderStatusPending.RestoresStock())
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusRefunded.Valid())
	assert.False(t, OrderStatus("SHREDDED").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestProduct_DisplayName(t *testing.T) {
	fr := "Lampe"
	p := Product{Name: "Lamp", NameFr: &fr}
	assert.Equal(t, "Lampe", p.DisplayName())

	p.NameFr = nil
	assert.Equal(t, "Lamp", p.DisplayName())

	empty := ""
	p.NameFr = &empty
	assert.Equal(t, "Lamp", p.DisplayName())
}
