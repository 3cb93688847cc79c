package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/events"
)

func TestAppCommands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	require.ElementsMatch(t, []string{"serve", "migrate"}, names)
}

func TestOpenBackendSQLitePersists(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StorageBackend: config.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "nested", "cart.db"),
		RunMigrations:  true,
	}

	b, err := openBackend(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	repo := cart.NewSnapshotRepository(b.kv)
	s := cart.NewStore(ctx, "s1", repo, nil)
	s.AddToCart(ctx, cart.OrderItem{ID: 1, Title: "Seeds", PricePerUnit: 100, Quantity: 2})
	b.close()

	reopened, err := openBackend(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer reopened.close()

	restored := cart.NewStore(ctx, "s1", cart.NewSnapshotRepository(reopened.kv), nil)
	require.Equal(t, 2, restored.ItemCount())
}

func TestOpenBackendMemory(t *testing.T) {
	b, err := openBackend(context.Background(), config.Config{StorageBackend: config.BackendMemory}, zap.NewNop())
	require.NoError(t, err)
	defer b.close()

	seq, err := b.sequence.NextSequence(context.Background(), "s1")
	require.NoError(t, err)
	require.EqualValues(t, 1, seq)
}

func TestNewPublisherWithoutBroker(t *testing.T) {
	pub, err := newPublisher(config.Config{}, events.NewMemorySequenceRepository(), zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &events.LogPublisher{}, pub)
	require.NoError(t, pub.Close())
}

func TestMigrateRejectsMemoryBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_BACKEND", "memory")
	err := migrate(context.Background(), "")
	require.ErrorContains(t, err, "no migrations")
}
