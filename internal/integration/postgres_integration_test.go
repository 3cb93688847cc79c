package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/storage"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/testutil"
)

func TestPostgresCartSurvivesRestart(t *testing.T) {
	testutil.RequireIntegration(t)
	pool := testutil.StartPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	repo := cart.NewSnapshotRepository(storage.NewPostgres(pool))
	s := cart.NewStore(ctx, "farmer-1", repo, nil)
	s.AddToCart(ctx, cart.OrderItem{ID: 1, Title: "Seeds", Category: "Seeds", PricePerUnit: 100, Quantity: 2})
	s.AddToCart(ctx, cart.EquipmentItem{ID: 1, Name: "Tractor", EquipmentType: "Tractor", PricePerDay: cart.Price(800), Quantity: 1})
	s.UpdateQuantity(ctx, 1, cart.KindOrder, 5)

	restored := cart.NewStore(ctx, "farmer-1", cart.NewSnapshotRepository(storage.NewPostgres(pool)), nil)
	require.Equal(t, s.Items(), restored.Items())
	require.EqualValues(t, 1300, restored.Total())

	other := cart.NewStore(ctx, "farmer-2", repo, nil)
	require.Empty(t, other.Items())
}

func TestPostgresSequencesPerPartition(t *testing.T) {
	testutil.RequireIntegration(t)
	pool := testutil.StartPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	seq := events.NewPostgresSequenceRepository(pool)
	for want := int64(1); want <= 3; want++ {
		got, err := seq.NextSequence(ctx, "farmer-1")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := seq.NextSequence(ctx, "farmer-2")
	require.NoError(t, err)
	require.EqualValues(t, 1, got)
}
