package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
)

func TestPostgres_Get(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM cart_snapshots`).
		WithArgs("s1/farmCart").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":1}]`)))

	got, err := NewPostgres(mock).Get(ctx, "s1/farmCart")
	require.NoError(t, err)
	require.Equal(t, `[{"id":1}]`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetMissing(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM cart_snapshots`).
		WithArgs("nobody/farmCart").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgres(mock).Get(ctx, "nobody/farmCart")
	require.ErrorIs(t, err, cart.ErrKeyNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Set(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	payload := []byte(`[]`)
	mock.ExpectExec(`INSERT INTO cart_snapshots`).
		WithArgs("s1/farmCart", payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgres(mock).Set(ctx, "s1/farmCart", payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetError(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO cart_snapshots`).
		WithArgs("s1/farmCart", []byte(`[]`)).
		WillReturnError(errors.New("disk full"))

	err = NewPostgres(mock).Set(ctx, "s1/farmCart", []byte(`[]`))
	require.EqualError(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_BacksSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM cart_snapshots`).
		WithArgs("s9/farmCart").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":2,"kind":"order","quantity":3,"title":"Paddy","pricePerUnit":40}]`)))

	items, err := cart.NewSnapshotRepository(NewPostgres(mock)).Load(ctx, "s9")
	require.NoError(t, err)
	require.Equal(t, []cart.LineItem{cart.OrderItem{ID: 2, Title: "Paddy", PricePerUnit: 40, Quantity: 3}}, items)
	require.NoError(t, mock.ExpectationsWereMet())
}
