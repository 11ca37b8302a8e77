package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// AllocationUseCase resuelve y registra ventas y devoluciones contra lotes.
// Cada asignación persistida genera exactamente un delta en el libro de cantidades.
type AllocationUseCase struct {
	// mu serializa resolución y registro locales: dos ventas del mismo escritor no deben
	// leer el mismo restante. Entre escritores la sobreventa se detecta al conciliar.
	mu          sync.Mutex
	lots        repository.LotRepository
	allocations repository.AllocationRepository
	catalog     repository.ProductCatalog
	ledger      *QuantityLedger
	log         zerolog.Logger
}

// NewAllocationUseCase construye el caso de uso.
func NewAllocationUseCase(repos Repositories, quantities *QuantityLedger, log zerolog.Logger) *AllocationUseCase {
	return &AllocationUseCase{
		lots:        repos.Lots,
		allocations: repos.Allocations,
		catalog:     repos.Catalog,
		ledger:      quantities,
		log:         log,
	}
}

// ResolveSale propone las porciones (lote, cantidad) de una venta sin mutar estado.
func (uc *AllocationUseCase) ResolveSale(ctx context.Context, in dto.ResolveSaleRequest) ([]ledger.Portion, error) {
	portions, _, err := uc.resolve(ctx, ledger.ResolveRequest{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		ExplicitLotID:  in.LotID,
		Article:        in.Article,
		AllowBackorder: in.AllowBackorder,
	})
	return portions, err
}

func (uc *AllocationUseCase) resolve(ctx context.Context, req ledger.ResolveRequest) ([]ledger.Portion, map[string]*entity.Lot, error) {
	if req.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}
	if req.ProductID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	ok, err := uc.catalog.Exists(ctx, req.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, domain.ErrNotFound
	}

	var stocks []ledger.LotStock
	if req.ExplicitLotID != "" {
		lot, err := uc.lots.GetByID(ctx, req.ExplicitLotID)
		if err != nil {
			return nil, nil, err
		}
		if lot == nil {
			return nil, nil, domain.ErrNotFound
		}
		stock, err := uc.ledger.stockOf(ctx, lot)
		if err != nil {
			return nil, nil, err
		}
		stocks = []ledger.LotStock{stock}
	} else {
		stocks, err = uc.ledger.stocksByProduct(ctx, req.ProductID)
		if err != nil {
			return nil, nil, err
		}
	}

	portions, err := ledger.Resolve(stocks, req)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]*entity.Lot, len(stocks))
	for _, s := range stocks {
		byID[s.Lot.ID] = s.Lot
	}
	return portions, byID, nil
}

// RecordSale resuelve y registra una línea de venta: una asignación y un delta por porción.
// Es idempotente por SaleLineID: un reintento devuelve las asignaciones ya registradas
// y vuelve a anexar sus deltas (no-op si ya estaban).
func (uc *AllocationUseCase) RecordSale(ctx context.Context, in dto.SaleLineRequest) (dto.SaleLineResponse, error) {
	if in.SaleLineID == "" || in.ProductID == "" {
		return dto.SaleLineResponse{}, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return dto.SaleLineResponse{}, domain.ErrInvalidQuantity
	}
	if in.UnitSalePrice.IsNegative() {
		return dto.SaleLineResponse{}, domain.ErrInvalidInput
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	existing, err := uc.saleAllocations(ctx, in.SaleLineID)
	if err != nil {
		return dto.SaleLineResponse{}, err
	}
	if len(existing) > 0 {
		if err := uc.replay(ctx, existing); err != nil {
			return dto.SaleLineResponse{}, err
		}
		uc.log.Info().Str("sale_line_id", in.SaleLineID).Msg("línea de venta ya registrada; reintento idempotente")
		return dto.SaleLineResponse{SaleLineID: in.SaleLineID, Allocations: existing, Replayed: true}, nil
	}

	portions, lots, err := uc.resolve(ctx, ledger.ResolveRequest{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		ExplicitLotID:  in.LotID,
		Article:        in.Article,
		AllowBackorder: in.AllowBackorder,
	})
	if err != nil {
		return dto.SaleLineResponse{}, err
	}

	eventKey := ledger.SaleEventKey(in.SaleLineID)
	now := time.Now().UTC()
	out := make([]*entity.Allocation, 0, len(portions))
	for _, p := range portions {
		price := in.UnitSalePrice
		if price.IsZero() {
			price = lots[p.LotID].UnitSalePrice
		}
		d := uc.ledger.newLocalDelta(eventKey, p.LotID, p.Quantity, now)
		a := &entity.Allocation{
			ID:               ledger.AllocationID(eventKey, p.LotID),
			SaleLineID:       in.SaleLineID,
			LotID:            p.LotID,
			ProductID:        in.ProductID,
			Kind:             entity.AllocationKindSale,
			Quantity:         p.Quantity,
			UnitSalePrice:    price,
			Backorder:        p.Backorder,
			DeltaID:          d.ID,
			WriterID:         d.OriginWriterID,
			LogicalTimestamp: d.LogicalTimestamp,
			CreatedAt:        now,
		}
		// La asignación se guarda antes que su delta: un reintento tras una caída la encuentra
		// y completa el delta faltante.
		if err := uc.allocations.Create(ctx, a); err != nil {
			return dto.SaleLineResponse{}, err
		}
		if _, err := uc.ledger.RecordDelta(ctx, d); err != nil {
			return dto.SaleLineResponse{}, err
		}
		out = append(out, a)
	}

	uc.log.Info().
		Str("sale_line_id", in.SaleLineID).
		Str("product_id", in.ProductID).
		Int64("quantity", in.Quantity).
		Int("portions", len(out)).
		Msg("venta registrada")
	return dto.SaleLineResponse{SaleLineID: in.SaleLineID, Allocations: out}, nil
}

// RecordReturn registra la devolución de parte o toda una asignación de venta.
// Crea una asignación enlazada de signo negativo; la original no se modifica.
// Devolver más de lo vendido (sumando devoluciones previas) falla con domain.ErrInvalidQuantity.
func (uc *AllocationUseCase) RecordReturn(ctx context.Context, in dto.ReturnLineRequest) (*entity.Allocation, bool, error) {
	if in.ReturnLineID == "" || in.OriginalAllocationID == "" {
		return nil, false, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, false, domain.ErrInvalidQuantity
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	orig, err := uc.allocations.GetByID(ctx, in.OriginalAllocationID)
	if err != nil {
		return nil, false, err
	}
	if orig == nil {
		return nil, false, domain.ErrNotFound
	}
	if orig.IsReturn() {
		return nil, false, domain.ErrInvalidInput
	}

	eventKey := ledger.ReturnEventKey(in.ReturnLineID) + "/" + orig.ID
	allocationID := ledger.AllocationID(eventKey, orig.LotID)
	if prev, err := uc.allocations.GetByID(ctx, allocationID); err != nil {
		return nil, false, err
	} else if prev != nil {
		if err := uc.replay(ctx, []*entity.Allocation{prev}); err != nil {
			return nil, false, err
		}
		return prev, true, nil
	}

	returns, err := uc.allocations.ListReturnsOf(ctx, orig.ID)
	if err != nil {
		return nil, false, err
	}
	var returned int64
	for _, r := range returns {
		returned += -r.Quantity
	}
	if returned+in.Quantity > orig.Quantity {
		return nil, false, domain.ErrInvalidQuantity
	}

	now := time.Now().UTC()
	d := uc.ledger.newLocalDelta(eventKey, orig.LotID, -in.Quantity, now)
	a := &entity.Allocation{
		ID:                   allocationID,
		SaleLineID:           in.ReturnLineID,
		LotID:                orig.LotID,
		ProductID:            orig.ProductID,
		Kind:                 entity.AllocationKindReturn,
		Quantity:             -in.Quantity,
		UnitSalePrice:        orig.UnitSalePrice,
		OriginalAllocationID: orig.ID,
		DeltaID:              d.ID,
		WriterID:             d.OriginWriterID,
		LogicalTimestamp:     d.LogicalTimestamp,
		CreatedAt:            now,
	}
	if err := uc.allocations.Create(ctx, a); err != nil {
		return nil, false, err
	}
	if _, err := uc.ledger.RecordDelta(ctx, d); err != nil {
		return nil, false, err
	}

	uc.log.Info().
		Str("return_line_id", in.ReturnLineID).
		Str("original_allocation_id", orig.ID).
		Str("lot_id", orig.LotID).
		Int64("quantity", in.Quantity).
		Msg("devolución registrada")
	return a, false, nil
}

// GetAllocation devuelve una asignación o domain.ErrNotFound.
func (uc *AllocationUseCase) GetAllocation(ctx context.Context, id string) (*entity.Allocation, error) {
	a, err := uc.allocations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (uc *AllocationUseCase) saleAllocations(ctx context.Context, saleLineID string) ([]*entity.Allocation, error) {
	list, err := uc.allocations.ListBySaleLine(ctx, saleLineID)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, a := range list {
		if !a.IsReturn() {
			out = append(out, a)
		}
	}
	return out, nil
}

// replay vuelve a anexar los deltas de asignaciones ya persistidas.
func (uc *AllocationUseCase) replay(ctx context.Context, allocations []*entity.Allocation) error {
	for _, a := range allocations {
		if _, err := uc.ledger.RecordDelta(ctx, a.Delta()); err != nil {
			return err
		}
	}
	return nil
}
