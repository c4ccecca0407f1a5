// Package scheduler corre tareas periódicas fuera del ciclo de las peticiones HTTP.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licitaciones_sweeper_runs_total",
		Help: "Barridos de cierre ejecutados por resultado.",
	}, []string{"result"})
	sweepClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licitaciones_sweeper_closed_total",
		Help: "Licitaciones cerradas por vencimiento.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "licitaciones_sweeper_duration_seconds",
		Help:    "Duración de cada barrido.",
		Buckets: prometheus.DefBuckets,
	})
)

// ExpiredCloser cierra las licitaciones Open vencidas; lo implementa tender.UseCase.
type ExpiredCloser interface {
	CloseExpired(ctx context.Context, now time.Time) ([]string, error)
}

// Sweeper ejecuta CloseExpired cada interval en su propia goroutine.
// Un barrido lento no acumula ticks: el ticker descarta los que llegan mientras corre.
type Sweeper struct {
	closer   ExpiredCloser
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSweeper el timeout de cada barrido es el intervalo.
func NewSweeper(closer ExpiredCloser, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		closer:   closer,
		interval: interval,
		timeout:  interval,
		log:      log,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start lanza la goroutine. Termina con Stop o al cancelarse ctx.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop detiene la goroutine y espera a que termine el barrido en curso.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("sweeper iniciado")
	for {
		select {
		case <-s.stop:
			s.log.Info().Msg("sweeper detenido")
			return
		case <-ctx.Done():
			s.log.Info().Msg("sweeper detenido por contexto")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce un barrido con su propio timeout. Los errores se registran y el siguiente tick reintenta.
func (s *Sweeper) RunOnce(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	ids, err := s.closer.CloseExpired(ctx, s.now())
	sweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("barrido de cierre falló")
		return nil
	}
	sweepRuns.WithLabelValues("ok").Inc()
	sweepClosed.Add(float64(len(ids)))
	if len(ids) > 0 {
		s.log.Info().Strs("tender_ids", ids).Msg("licitaciones cerradas por vencimiento")
	}
	return ids
}
