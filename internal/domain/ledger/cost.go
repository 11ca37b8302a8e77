package ledger

import "github.com/shopspring/decimal"

// LineCost calcula base de costo y margen bruto de una asignación (servicio de dominio).
// CostBasis = UnitCost * Quantity; GrossMargin = (SalePrice * Quantity) - CostBasis.
// Quantity negativo (devolución) produce exactamente la negación de la venta equivalente.
func LineCost(unitCost, unitSalePrice decimal.Decimal, quantity int64) (costBasis, grossMargin decimal.Decimal) {
	q := decimal.NewFromInt(quantity)
	costBasis = unitCost.Mul(q)
	grossMargin = unitSalePrice.Mul(q).Sub(costBasis)
	return costBasis, grossMargin
}
