package workers

import (
	"fmt"
	"log/slog"
)

// Manager starts and stops a set of workers together.
type Manager struct {
	workers []Worker
	logger  *slog.Logger
}

func NewManager(logger *slog.Logger, workers ...Worker) *Manager {
	return &Manager{
		workers: workers,
		logger:  logger,
	}
}

func (m *Manager) Start() error {
	m.logger.Info("Starting workers", "count", len(m.workers))

	for _, worker := range m.workers {
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start worker %s: %w", worker.Name(), err)
		}
		m.logger.Info("Worker started", "name", worker.Name())
	}
	return nil
}

func (m *Manager) Stop() {
	for _, worker := range m.workers {
		worker.Stop()
		m.logger.Info("Worker stopped", "name", worker.Name())
	}
}
