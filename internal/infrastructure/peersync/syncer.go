package peersync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// maxPagesPerRound evita que un par que siempre responde has_more bloquee la ronda.
const maxPagesPerRound = 1000

// Reconciler puerto hacia el caso de uso de conciliación.
type Reconciler interface {
	Merge(ctx context.Context, batch dto.SyncBatch) (dto.MergeResult, error)
}

// Syncer trae de cada par lo que aún no se conoce localmente y lo fusiona.
type Syncer struct {
	peers      []*Client
	reconcile  Reconciler
	state      repository.SyncStateRepository
	batchSize  int
	fullResync int
	rounds     int
	log        zerolog.Logger
}

// NewSyncer construye el sincronizador. fullResync > 0 pide el registro completo cada
// fullResync rondas para reparar huecos de vectores.
func NewSyncer(peers []*Client, reconcile Reconciler, state repository.SyncStateRepository, batchSize, fullResync int, log zerolog.Logger) *Syncer {
	return &Syncer{
		peers:      peers,
		reconcile:  reconcile,
		state:      state,
		batchSize:  batchSize,
		fullResync: fullResync,
		log:        log,
	}
}

// RoundResult resumen de una ronda contra todos los pares.
type RoundResult struct {
	Applied  int
	Oversold int
	Full     bool
}

// SyncAll ejecuta una ronda contra todos los pares en paralelo. Un par caído no detiene
// a los demás; el error devuelto es el primero encontrado.
func (s *Syncer) SyncAll(ctx context.Context) (RoundResult, error) {
	s.rounds++
	full := s.fullResync > 0 && s.rounds%s.fullResync == 0
	results := make([]dto.MergeResult, len(s.peers))

	var g errgroup.Group
	for i, peer := range s.peers {
		g.Go(func() error {
			res, err := s.pullFrom(ctx, peer, full)
			results[i] = res
			if err != nil {
				s.log.Error().Err(err).Str("peer", peer.BaseURL()).Msg("sincronización con par fallida")
			}
			return err
		})
	}
	err := g.Wait()

	out := RoundResult{Full: full}
	for _, r := range results {
		out.Applied += r.Applied
		out.Oversold += len(r.Oversold)
	}
	return out, err
}

// pullFrom pagina el registro del par desde el último vector guardado.
func (s *Syncer) pullFrom(ctx context.Context, peer *Client, full bool) (dto.MergeResult, error) {
	var total dto.MergeResult
	since := map[string]uint64{}
	if !full {
		saved, err := s.state.GetPeerVector(ctx, peer.BaseURL())
		if err != nil {
			return total, err
		}
		since = saved
	}

	for page := 0; page < maxPagesPerRound; page++ {
		batch, err := peer.Pull(ctx, since, s.batchSize)
		if err != nil {
			return total, err
		}
		res, err := s.reconcile.Merge(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("merge %s: %w", peer.BaseURL(), err)
		}
		total.Applied += res.Applied
		total.Duplicates += res.Duplicates
		total.Conflicts += res.Conflicts
		total.LotsImported += res.LotsImported
		total.Oversold = append(total.Oversold, res.Oversold...)
		total.ReconciledAt = res.ReconciledAt

		// El vector se guarda solo tras fusionar: si algo falla se repite la página completa
		if err := s.state.SavePeerVector(ctx, peer.BaseURL(), batch.Vector); err != nil {
			return total, err
		}
		since = batch.Vector
		if !batch.HasMore {
			break
		}
	}

	s.log.Debug().
		Str("peer", peer.BaseURL()).
		Bool("full", full).
		Int("applied", total.Applied).
		Int("duplicates", total.Duplicates).
		Msg("par sincronizado")
	return total, nil
}
