package service

import (
	"context"
	"io"
	"testing"

	"restobar/internal/domain"
	"restobar/internal/models"
	"restobar/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_List(t *testing.T) {
	logger := zerolog.New(io.Discard)
	store := repository.NewMemoryOrderStore()
	svc := NewOrderService(store, &logger)
	ctx := context.Background()

	seed := []*models.Order{
		{CustomerName: "Alice", TableID: "t1", Status: "delivered", Total: 20},
		{CustomerName: "Bob", TableID: "t2", Status: "preparing", Total: 12},
		{CustomerName: "Carol", TableID: "t1", Status: "preparing", Total: 8},
	}
	for _, o := range seed {
		require.NoError(t, store.CreateOrder(ctx, o))
	}

	names := func(orders []*models.Order) []string {
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.CustomerName)
		}
		return out
	}

	tests := []struct {
		name   string
		filter OrderFilter
		want   []string
	}{
		{"no filter", OrderFilter{}, []string{"Alice", "Bob", "Carol"}},
		{"by status", OrderFilter{Status: "Preparing"}, []string{"Bob", "Carol"}},
		{"by table", OrderFilter{TableID: "t1"}, []string{"Alice", "Carol"}},
		{"status and table", OrderFilter{Status: "preparing", TableID: "t1"}, []string{"Carol"}},
		{"no match", OrderFilter{Status: "ready"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(orders))
		})
	}

	got, err := svc.GetByID(ctx, seed[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.CustomerName)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
