package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot representa un lote comprado (una línea de compra de un producto) con su propio costo y cantidad.
// UnitCost y QuantityReceived son de escritura única; la cantidad consumida nunca se guarda aquí,
// se deriva del libro de deltas.
type Lot struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	BatchRef         string          `json:"batch_ref"` // compra + línea de compra de origen
	UnitCost         decimal.Decimal `json:"unit_cost"`
	UnitSalePrice    decimal.Decimal `json:"unit_sale_price"`
	UnitMRP          decimal.Decimal `json:"unit_mrp"`
	QuantityReceived int64           `json:"quantity_received"`
	Article          string          `json:"article,omitempty"`
	Barcode          string          `json:"barcode,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	// Sello del escritor que registró el lote; viaja con la sincronización igual que un delta.
	OriginWriterID   string `json:"origin_writer_id,omitempty"`
	LogicalTimestamp uint64 `json:"logical_timestamp,omitempty"`
}

// NaturalKey devuelve la clave natural del lote: lote de compra + producto.
func (l *Lot) NaturalKey() string {
	return l.BatchRef + "|" + l.ProductID
}

// SameImmutableFields indica si otro lote coincide en todos los campos inmutables.
func (l *Lot) SameImmutableFields(o *Lot) bool {
	return l.ProductID == o.ProductID &&
		l.BatchRef == o.BatchRef &&
		l.QuantityReceived == o.QuantityReceived &&
		l.UnitCost.Equal(o.UnitCost) &&
		l.UnitSalePrice.Equal(o.UnitSalePrice) &&
		l.UnitMRP.Equal(o.UnitMRP)
}
