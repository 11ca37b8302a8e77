package ledger

import (
	"sort"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// DeltaSet conjunto de deltas indexado por delta_id (CRDT de solo crecimiento).
// La unión es conmutativa, asociativa e idempotente.
type DeltaSet map[string]entity.Delta

// NewDeltaSet construye un conjunto a partir de una lista (los duplicados se descartan).
func NewDeltaSet(deltas ...entity.Delta) (DeltaSet, error) {
	s := make(DeltaSet, len(deltas))
	for _, d := range deltas {
		if _, err := s.Add(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add agrega un delta. Devuelve false si el ID ya estaba presente con el mismo contenido.
func (s DeltaSet) Add(d entity.Delta) (bool, error) {
	if prev, ok := s[d.ID]; ok {
		if !prev.SamePayload(d) {
			return false, domain.ErrDeltaConflict
		}
		return false, nil
	}
	s[d.ID] = d
	return true, nil
}

// Merge une otro conjunto en éste y devuelve cuántos deltas eran nuevos.
func (s DeltaSet) Merge(other DeltaSet) (int, error) {
	added := 0
	for _, d := range other {
		ok, err := s.Add(d)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Fold suma signed_quantity agrupado por lote.
func (s DeltaSet) Fold() map[string]int64 {
	out := make(map[string]int64)
	for _, d := range s {
		out[d.LotID] += d.SignedQuantity
	}
	return out
}

// Sorted devuelve los deltas ordenados por (escritor de origen, timestamp lógico, ID).
func (s DeltaSet) Sorted() []entity.Delta {
	list := make([]entity.Delta, 0, len(s))
	for _, d := range s {
		list = append(list, d)
	}
	SortForExport(list)
	return list
}

// Fold suma una lista de deltas ya deduplicada para un único lote.
func Fold(deltas []entity.Delta) int64 {
	var total int64
	for _, d := range deltas {
		total += d.SignedQuantity
	}
	return total
}

// SortForExport ordena por (escritor, timestamp lógico, ID) para que cada lote exportado
// sea un prefijo por escritor.
func SortForExport(list []entity.Delta) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.OriginWriterID != b.OriginWriterID {
			return a.OriginWriterID < b.OriginWriterID
		}
		if a.LogicalTimestamp != b.LogicalTimestamp {
			return a.LogicalTimestamp < b.LogicalTimestamp
		}
		return a.ID < b.ID
	})
}
