package ledger

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// LotStock lote con su cantidad restante conciliada al momento de resolver.
type LotStock struct {
	Lot       *entity.Lot
	Remaining int64
}

// ResolveRequest solicitud de asignación de una línea de venta.
// ExplicitLotID vacío activa el respaldo "lote más antiguo primero".
// Article es una pista opcional: los lotes con el mismo artículo se prueban primero.
type ResolveRequest struct {
	ProductID      string
	Quantity       int64
	ExplicitLotID  string
	Article        string
	AllowBackorder bool
}

// Portion porción propuesta (lote, cantidad). Backorder marca cantidad por encima del stock restante.
type Portion struct {
	LotID     string `json:"lot_id"`
	Quantity  int64  `json:"quantity"`
	Backorder bool   `json:"backorder"`
}

// Resolve propone las porciones de una venta sobre los lotes del producto. No muta estado.
func Resolve(stocks []LotStock, req ResolveRequest) ([]Portion, error) {
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.ExplicitLotID != "" {
		return resolveExplicit(stocks, req)
	}
	return resolveOldestFirst(stocks, req)
}

func resolveExplicit(stocks []LotStock, req ResolveRequest) ([]Portion, error) {
	for _, s := range stocks {
		if s.Lot.ID != req.ExplicitLotID {
			continue
		}
		if s.Lot.ProductID != req.ProductID {
			return nil, domain.ErrInvalidInput
		}
		if s.Remaining >= req.Quantity {
			return []Portion{{LotID: s.Lot.ID, Quantity: req.Quantity}}, nil
		}
		if req.AllowBackorder {
			return []Portion{{LotID: s.Lot.ID, Quantity: req.Quantity, Backorder: true}}, nil
		}
		return nil, domain.ErrInsufficientStock
	}
	// El lote no pertenece a los lotes del producto
	return nil, domain.ErrInvalidInput
}

func resolveOldestFirst(stocks []LotStock, req ResolveRequest) ([]Portion, error) {
	candidates := make([]LotStock, 0, len(stocks))
	for _, s := range stocks {
		if s.Lot.ProductID == req.ProductID {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrInsufficientStock
	}

	article := foldArticle(req.Article)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Lot, candidates[j].Lot
		if article != "" {
			ma, mb := foldArticle(a.Article) == article, foldArticle(b.Article) == article
			if ma != mb {
				return ma
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	pending := req.Quantity
	var portions []Portion
	for _, s := range candidates {
		if pending == 0 {
			break
		}
		if s.Remaining <= 0 {
			continue
		}
		take := min(pending, s.Remaining)
		portions = append(portions, Portion{LotID: s.Lot.ID, Quantity: take})
		pending -= take
	}
	if pending == 0 {
		return portions, nil
	}
	if !req.AllowBackorder {
		return nil, domain.ErrInsufficientStock
	}

	// Faltante en pedido pendiente: se carga al lote más reciente del producto
	newest := candidates[0].Lot
	for _, s := range candidates[1:] {
		if s.Lot.CreatedAt.After(newest.CreatedAt) || (s.Lot.CreatedAt.Equal(newest.CreatedAt) && s.Lot.ID > newest.ID) {
			newest = s.Lot
		}
	}
	for i := range portions {
		if portions[i].LotID == newest.ID {
			portions[i].Quantity += pending
			portions[i].Backorder = true
			return portions, nil
		}
	}
	return append(portions, Portion{LotID: newest.ID, Quantity: pending, Backorder: true}), nil
}

var articleFolder = cases.Fold()

func foldArticle(s string) string {
	return articleFolder.String(strings.TrimSpace(s))
}
