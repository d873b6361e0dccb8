package worker

import (
	"context"
	"sync"
	"time"

	"skystream/internal/logging"
)

// RunFunc - одна итерация периодической задачи.
type RunFunc func(ctx context.Context) error

// PeriodicWorker запускает run сразу при старте, затем по тикеру.
type PeriodicWorker struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	run      RunFunc

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewPeriodicWorker(name string, interval, timeout time.Duration, run RunFunc) *PeriodicWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &PeriodicWorker{
		name:     name,
		interval: interval,
		timeout:  timeout,
		run:      run,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *PeriodicWorker) Name() string { return w.name }

// Start блокирует до вызова Stop.
func (w *PeriodicWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	logging.Info().Str("worker", w.name).Dur("interval", w.interval).Msg("Worker started")

	// Запускаем сразу первую итерацию
	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopChan:
			return
		}
	}
}

func (w *PeriodicWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stopChan:
		return
	default:
	}

	close(w.stopChan)
	w.cancel()
	w.running = false
	logging.Info().Str("worker", w.name).Msg("Worker stopped")
}

func (w *PeriodicWorker) tick() {
	ctx := w.ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(w.ctx, w.timeout)
		defer cancel()
	}

	started := time.Now()
	if err := w.run(ctx); err != nil {
		logging.Error().Err(err).Str("worker", w.name).Msg("Worker run failed")
		return
	}
	logging.Debug().Str("worker", w.name).Dur("took", time.Since(started)).Msg("Worker run completed")
}
