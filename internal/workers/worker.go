package workers

// Worker is a background job with its own schedule.
type Worker interface {
	// Start schedules the worker.
	Start() error

	// Stop gracefully stops the worker.
	Stop()

	// Name identifies the worker in logs.
	Name() string
}
