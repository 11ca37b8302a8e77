package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// LotUseCase registro de lotes: alta idempotente por clave natural y consulta.
type LotUseCase struct {
	lots       repository.LotRepository
	quantities *QuantityLedger
	log        zerolog.Logger
}

// NewLotUseCase construye el caso de uso. Los lotes nuevos se sellan con el reloj del libro
// de cantidades para sincronizarse entre escritores.
func NewLotUseCase(repos Repositories, quantities *QuantityLedger, log zerolog.Logger) *LotUseCase {
	return &LotUseCase{lots: repos.Lots, quantities: quantities, log: log}
}

// Create registra un lote. Si ya existe uno con la misma clave natural (lote de compra + producto)
// y los mismos campos inmutables, devuelve el existente con created=false.
// Si difiere en algún campo inmutable falla con domain.ErrDuplicateLot.
func (uc *LotUseCase) Create(ctx context.Context, in dto.CreateLotRequest) (lot *entity.Lot, created bool, err error) {
	if in.ProductID == "" || in.BatchRef == "" {
		return nil, false, domain.ErrInvalidInput
	}
	if in.QuantityReceived <= 0 {
		return nil, false, domain.ErrInvalidQuantity
	}
	for _, price := range []decimal.Decimal{in.UnitCost, in.UnitSalePrice, in.UnitMRP} {
		if price.IsNegative() {
			return nil, false, domain.ErrInvalidInput
		}
	}

	createdAt := time.Now().UTC()
	if in.CreatedAt != nil {
		createdAt = in.CreatedAt.UTC()
	}
	candidate := &entity.Lot{
		ProductID:        in.ProductID,
		BatchRef:         in.BatchRef,
		UnitCost:         in.UnitCost,
		UnitSalePrice:    in.UnitSalePrice,
		UnitMRP:          in.UnitMRP,
		QuantityReceived: in.QuantityReceived,
		Article:          in.Article,
		Barcode:          in.Barcode,
		CreatedAt:        createdAt,
	}

	existing, err := uc.lots.GetByNaturalKey(ctx, in.BatchRef, in.ProductID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.SameImmutableFields(candidate) {
			return existing, false, nil
		}
		uc.log.Warn().
			Str("lot_id", existing.ID).
			Str("batch_ref", in.BatchRef).
			Str("product_id", in.ProductID).
			Msg("lote duplicado con campos inmutables distintos")
		return nil, false, domain.ErrDuplicateLot
	}

	candidate.ID = uuid.New().String()
	candidate.OriginWriterID, candidate.LogicalTimestamp = uc.quantities.stamp()
	if err := uc.lots.Create(ctx, candidate); err != nil {
		return nil, false, err
	}
	uc.log.Info().
		Str("lot_id", candidate.ID).
		Str("product_id", candidate.ProductID).
		Int64("quantity_received", candidate.QuantityReceived).
		Msg("lote registrado")
	return candidate, true, nil
}

// GetByID devuelve el lote o domain.ErrNotFound.
func (uc *LotUseCase) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	lot, err := uc.lots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	return lot, nil
}

// ListByProduct lista los lotes del producto, del más antiguo al más reciente.
func (uc *LotUseCase) ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.lots.ListByProduct(ctx, productID)
}

// UpdateAttributes cambia artículo y código de barras. Cualquier intento de escribir un campo
// de escritura única falla con domain.ErrImmutableFieldViolation.
func (uc *LotUseCase) UpdateAttributes(ctx context.Context, id string, in dto.UpdateLotRequest) (*entity.Lot, error) {
	lot, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.TouchesImmutable() {
		uc.log.Warn().Str("lot_id", id).Msg("intento de modificar campo inmutable del lote")
		return nil, domain.ErrImmutableFieldViolation
	}
	if in.Article != nil {
		lot.Article = *in.Article
	}
	if in.Barcode != nil {
		lot.Barcode = *in.Barcode
	}
	if err := uc.lots.UpdateAttributes(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}
