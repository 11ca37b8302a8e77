package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// ResolveSaleRequest body para POST /api/sales/resolve.
type ResolveSaleRequest struct {
	ProductID      string `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	LotID          string `json:"lot_id,omitempty"`
	Article        string `json:"article,omitempty"`
	AllowBackorder bool   `json:"allow_backorder"`
}

// SaleLineRequest body para POST /api/sales: una línea de venta.
// UnitSalePrice cero toma el precio de venta del lote.
type SaleLineRequest struct {
	SaleLineID     string          `json:"sale_line_id"`
	ProductID      string          `json:"product_id"`
	Quantity       int64           `json:"quantity"`
	LotID          string          `json:"lot_id,omitempty"`
	Article        string          `json:"article,omitempty"`
	UnitSalePrice  decimal.Decimal `json:"unit_sale_price"`
	AllowBackorder bool            `json:"allow_backorder"`
}

// ReturnLineRequest body para POST /api/returns.
type ReturnLineRequest struct {
	ReturnLineID         string `json:"return_line_id"`
	OriginalAllocationID string `json:"original_allocation_id"`
	Quantity             int64  `json:"quantity"`
}

// SaleLineResponse asignaciones registradas para una línea.
type SaleLineResponse struct {
	SaleLineID  string               `json:"sale_line_id"`
	Allocations []*entity.Allocation `json:"allocations"`
	Replayed    bool                 `json:"replayed"`
}

// SaleLineCostResponse costo agregado de una línea de venta dividida entre lotes.
type SaleLineCostResponse struct {
	SaleLineID  string            `json:"sale_line_id"`
	Lines       []entity.LineCost `json:"lines"`
	CostBasis   decimal.Decimal   `json:"cost_basis"`
	GrossMargin decimal.Decimal   `json:"gross_margin"`
	Estimated   bool              `json:"estimated"`
}
