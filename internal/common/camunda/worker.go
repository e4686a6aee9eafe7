// internal/common/camunda/worker.go
package camunda

import (
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"travel-planner/internal/common/config"
	"travel-planner/internal/common/logger"
)

// Workers tracks opened job workers so they can be closed on shutdown.
type Workers struct {
	open []worker.JobWorker
	log  logger.Logger
}

func NewWorkers(log logger.Logger) *Workers {
	return &Workers{log: log}
}

// Start opens a job worker for taskType unless it is disabled in wcfg.
// It reports whether a worker was opened.
func (w *Workers) Start(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		w.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(fmt.Sprintf("%s-worker", taskType)).
		Open()
	w.open = append(w.open, jobWorker)

	w.log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

func (w *Workers) Len() int {
	return len(w.open)
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	for _, jw := range w.open {
		jw.Close()
		jw.AwaitClose()
	}
	w.open = nil
}
