package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/repository"
)

type drugFixture struct {
	repos *repository.Registry
}

func newDrugService(t *testing.T) (*DrugService, *drugFixture) {
	t.Helper()
	repos := newTestRegistry(t)
	svc := NewDrugService(repos, newTestActivityService(t, repos), testCollector, zap.NewNop())
	return svc, &drugFixture{repos: repos}
}

func TestDrugCreate_InitialStockIsAudited(t *testing.T) {
	svc, f := newDrugService(t)

	d, err := svc.Create(context.Background(), &drug.CreateDrugCommand{
		Name:      "Cetirizine 10mg",
		SKU:       "CTZ-010",
		Unit:      "tablet",
		UnitPrice: 3000,
		StockQty:  200,
		MinStock:  20,
	}, pharmacistActor())
	require.NoError(t, err)
	assert.Equal(t, 200, d.StockQty)

	audit, err := f.repos.Drugs.ListStockAudit(context.Background(), d.ID, 10)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, drug.ActionStockIn, audit[0].Action)
	assert.Equal(t, 200, audit[0].Quantity)
	assert.Equal(t, 0, audit[0].OldStock)
	assert.Equal(t, 200, audit[0].NewStock)
}

func TestDrugAdjustStock_PairsWithAudit(t *testing.T) {
	svc, f := newDrugService(t)
	d := seedDrug(t, f.repos, "Ibuprofen 400mg", "IBU-400", 4000, 30)
	actor := pharmacistActor()

	adjusted, err := svc.AdjustStock(context.Background(), d.ID, &drug.AdjustStockCommand{
		Delta:  -5,
		Reason: "expired batch discarded",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 25, adjusted.StockQty)

	audit, err := f.repos.Drugs.ListStockAudit(context.Background(), d.ID, 10)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, drug.ActionStockAdjusted, audit[0].Action)
	assert.Equal(t, -5, audit[0].Quantity)
	assert.Equal(t, 30, audit[0].OldStock)
	assert.Equal(t, 25, audit[0].NewStock)
	assert.Equal(t, actor.UserID, audit[0].UserID)
	assert.Equal(t, "expired batch discarded", audit[0].Reason)
}

func TestDrugAdjustStock_RejectsNegativeResult(t *testing.T) {
	svc, f := newDrugService(t)
	d := seedDrug(t, f.repos, "Omeprazole 20mg", "OMP-020", 6000, 10)

	_, err := svc.AdjustStock(context.Background(), d.ID, &drug.AdjustStockCommand{
		Delta:  -11,
		Reason: "typo",
	}, pharmacistActor())
	assert.ErrorIs(t, err, drug.ErrStockWouldGoNegative)

	// Stock untouched, no audit row.
	reloaded, err := f.repos.Drugs.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.StockQty)

	audit, err := f.repos.Drugs.ListStockAudit(context.Background(), d.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func TestDrugAdjustStock_RoleEnforcement(t *testing.T) {
	svc, f := newDrugService(t)
	d := seedDrug(t, f.repos, "Metformin 500mg", "MTF-500", 2500, 40)

	_, err := svc.AdjustStock(context.Background(), d.ID, &drug.AdjustStockCommand{Delta: 5, Reason: "restock"}, receptionistActor())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AdjustStock(context.Background(), d.ID, &drug.AdjustStockCommand{Delta: 5, Reason: "restock"}, adminActor())
	assert.NoError(t, err)
}
