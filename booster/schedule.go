package booster

import (
	"time"

	"github.com/go-co-op/gocron"
)

// Schedule runs Tick every interval on s. Overlapping runs are skipped, and report
// receives every non-empty summary.
func Schedule(s *gocron.Scheduler, e *Engine, every time.Duration, report func(Summary)) (*gocron.Job, error) {
	return s.SingletonMode().Every(every).Do(func() {
		summary, ok := e.Tick()
		if ok && report != nil {
			report(summary)
		}
	})
}
