package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// CostUseCase costo de mercancía vendida y margen por asignación, usando el costo del lote exacto.
type CostUseCase struct {
	lots        repository.LotRepository
	allocations repository.AllocationRepository
	log         zerolog.Logger
}

// NewCostUseCase construye el caso de uso.
func NewCostUseCase(repos Repositories, log zerolog.Logger) *CostUseCase {
	return &CostUseCase{lots: repos.Lots, allocations: repos.Allocations, log: log}
}

// LineCost costo y margen de una asignación. Una devolución usa el lote y el precio de la venta
// original, así su resultado es la negación exacta de la porción vendida equivalente.
// Si la base de costo no se puede resolver devuelve una estimación marcada (costo cero)
// junto con domain.ErrUnresolvedCostBasis.
func (uc *CostUseCase) LineCost(ctx context.Context, allocationID string) (entity.LineCost, error) {
	a, err := uc.allocations.GetByID(ctx, allocationID)
	if err != nil {
		return entity.LineCost{}, err
	}
	if a == nil {
		return entity.LineCost{}, domain.ErrNotFound
	}
	return uc.lineCost(ctx, a)
}

func (uc *CostUseCase) lineCost(ctx context.Context, a *entity.Allocation) (entity.LineCost, error) {
	source := a
	if a.IsReturn() {
		orig, err := uc.allocations.GetByID(ctx, a.OriginalAllocationID)
		if err != nil {
			return entity.LineCost{}, err
		}
		if orig == nil {
			return uc.estimate(a, "asignación original no encontrada")
		}
		source = orig
	}
	lot, err := uc.lots.GetByID(ctx, source.LotID)
	if err != nil {
		return entity.LineCost{}, err
	}
	if lot == nil {
		return uc.estimate(a, "lote de origen no encontrado")
	}

	costBasis, margin := ledger.LineCost(lot.UnitCost, source.UnitSalePrice, a.Quantity)
	return entity.LineCost{
		AllocationID: a.ID,
		Kind:         a.Kind,
		Quantity:     a.Quantity,
		CostBasis:    costBasis,
		GrossMargin:  margin,
	}, nil
}

// estimate respaldo con costo cero: todo el importe queda como margen y se marca Estimated.
func (uc *CostUseCase) estimate(a *entity.Allocation, reason string) (entity.LineCost, error) {
	costBasis, margin := ledger.LineCost(decimal.Zero, a.UnitSalePrice, a.Quantity)
	uc.log.Warn().
		Str("allocation_id", a.ID).
		Str("lot_id", a.LotID).
		Str("reason", reason).
		Msg("base de costo no resuelta; se reporta estimación")
	return entity.LineCost{
			AllocationID: a.ID,
			Kind:         a.Kind,
			Quantity:     a.Quantity,
			CostBasis:    costBasis,
			GrossMargin:  margin,
			Estimated:    true,
		},
		fmt.Errorf("%w: %s", domain.ErrUnresolvedCostBasis, reason)
}

// SaleLineCost suma el costo de todas las porciones de una línea (venta dividida entre lotes).
// Las porciones sin base de costo entran como estimación y marcan el total como Estimated.
func (uc *CostUseCase) SaleLineCost(ctx context.Context, saleLineID string) (dto.SaleLineCostResponse, error) {
	list, err := uc.allocations.ListBySaleLine(ctx, saleLineID)
	if err != nil {
		return dto.SaleLineCostResponse{}, err
	}
	if len(list) == 0 {
		return dto.SaleLineCostResponse{}, domain.ErrNotFound
	}

	out := dto.SaleLineCostResponse{
		SaleLineID:  saleLineID,
		Lines:       make([]entity.LineCost, 0, len(list)),
		CostBasis:   decimal.Zero,
		GrossMargin: decimal.Zero,
	}
	for _, a := range list {
		lc, err := uc.lineCost(ctx, a)
		if err != nil && !errors.Is(err, domain.ErrUnresolvedCostBasis) {
			return dto.SaleLineCostResponse{}, err
		}
		out.Lines = append(out.Lines, lc)
		out.CostBasis = out.CostBasis.Add(lc.CostBasis)
		out.GrossMargin = out.GrossMargin.Add(lc.GrossMargin)
		out.Estimated = out.Estimated || lc.Estimated
	}
	return out, nil
}
