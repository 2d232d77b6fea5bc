package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiraska/internal/repos"
	"kiraska/internal/services"
)

func TestValidator_UsesServerPrice(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "P1", "185000", 5)
	v := services.NewValidator(repos.NewProductRepo(db))

	var res services.Validation
	var err error
	logs := captureLogs(t, func() {
		res, err = v.Validate(context.Background(), []services.CartLine{
			{ProductID: "P1", Quantity: "2", ClientPrice: "999", ClientName: "Cheap Paint"},
		})
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "185000", res.Lines[0].UnitPrice.String())
	assert.Equal(t, "Product P1", res.Lines[0].Name)
	assert.Equal(t, "370000", res.Total.String())
	assert.True(t, hasAction(logs, "checkout.price.mismatch"))
	assert.True(t, hasAction(logs, "checkout.name.mismatch"))
}

func TestValidator_RejectsPerLine(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	addProduct(t, db, "ok", "100", 10)
	addProduct(t, db, "low", "100", 3)
	addProduct(t, db, "gone", "100", 10)
	addProduct(t, db, "zero", "100", 0)
	addProduct(t, db, "free", "50", -1)
	require.NoError(t, repos.NewProductRepo(db).SetActive(ctx, "gone", false))
	v := services.NewValidator(repos.NewProductRepo(db))

	res, err := v.Validate(ctx, []services.CartLine{
		{ProductID: "ok", Quantity: "1"},
		{ProductID: "missing", Quantity: "1"},
		{ProductID: "gone", Quantity: "1"},
		{ProductID: "low", Quantity: "10"},
		{ProductID: "zero", Quantity: "1"},
		{ProductID: "ok", Quantity: "0"},
		{ProductID: "ok", Quantity: "1.5"},
		{ProductID: "free", Quantity: "1000"},
		{ProductID: "", Quantity: "1"},
	})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, []string{
		"missing: product not found",
		"gone: product inactive",
		"low: insufficient stock (requested 10, available 3)",
		"zero: insufficient stock (requested 1, available 0)",
		`ok: invalid quantity "0"`,
		`ok: invalid quantity "1.5"`,
		"line 9: missing product id",
	}, res.Errors, "details follow input order")

	// accepted lines still total; the caller decides what to do
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "50100", res.Total.String())
}

func TestValidator_RepeatedLinesShareStock(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "P1", "10", 3)
	v := services.NewValidator(repos.NewProductRepo(db))

	res, err := v.Validate(context.Background(), []services.CartLine{
		{ProductID: "P1", Quantity: "2"},
		{ProductID: "P1", Quantity: json.Number("2")},
	})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "requested 4, available 3")
}

func TestValidator_ErrorsInInputOrder(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "X", "10", 5)
	v := services.NewValidator(repos.NewProductRepo(db))

	res, err := v.Validate(context.Background(), []services.CartLine{
		{ProductID: "GONE", Quantity: "1"},
		{ProductID: "X", Quantity: "0"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GONE: product not found", `X: invalid quantity "0"`}, res.Errors)
	assert.Empty(t, res.Lines)
	assert.Equal(t, "0", res.Total.String())
}

func TestValidator_EmptyCart(t *testing.T) {
	v := services.NewValidator(repos.NewProductRepo(memdb(t)))
	_, err := v.Validate(context.Background(), nil)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}
