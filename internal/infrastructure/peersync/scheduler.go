package peersync

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler ejecuta rondas de sincronización periódicas con robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	syncer   *Syncer
	schedule string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewScheduler crea el programador. schedule acepta la sintaxis de robfig/cron, ej. "@every 30s".
func NewScheduler(syncer *Syncer, schedule string, timeout time.Duration, log zerolog.Logger) *Scheduler {
	// SkipIfStillRunning: una ronda lenta no se solapa con la siguiente
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{
		cron:     c,
		syncer:   syncer,
		schedule: schedule,
		timeout:  timeout,
		log:      log,
	}
}

// Start registra la tarea y arranca el programador.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runRound); err != nil {
		return err
	}
	s.log.Info().Str("schedule", s.schedule).Int("peers", len(s.syncer.peers)).Msg("sincronización programada")
	s.cron.Start()
	return nil
}

// Stop detiene el programador y espera a la ronda en curso.
func (s *Scheduler) Stop(ctx context.Context) {
	s.log.Info().Msg("deteniendo sincronización")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runRound() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.syncer.SyncAll(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("ronda de sincronización incompleta")
		return
	}
	ev := s.log.Info()
	if res.Applied == 0 && res.Oversold == 0 {
		ev = s.log.Debug()
	}
	ev.Int("applied", res.Applied).Int("oversold", res.Oversold).Bool("full", res.Full).Msg("ronda de sincronización completada")
}
