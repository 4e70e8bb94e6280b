package logger

import (
	"sync"
	"time"
)

// ProgressTracker logs progress of long-running batch operations at a
// fixed interval, so large exports do not look hung.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// NewProgressTracker creates a tracker for an operation with a known
// total item count.
func NewProgressTracker(log Logger, operation string, total int64) *ProgressTracker {
	if log == nil {
		log = GetGlobalLogger()
	}
	tracker := &ProgressTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		total:       total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: 5 * time.Second,
	}
	tracker.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Info("starting operation")
	return tracker
}

// Increment advances the counter by one, logging at intervals.
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	now := time.Now()
	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logProgress(now)
		p.lastLogTime = now
	}
}

// Complete logs the final progress line with total elapsed time.
func (p *ProgressTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"total":     p.total,
		"elapsed":   time.Since(p.startTime).Round(time.Millisecond).String(),
	}).Info("operation complete")
}

func (p *ProgressTracker) logProgress(now time.Time) {
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total) * 100
	}
	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"total":     p.total,
		"percent":   percent,
		"elapsed":   now.Sub(p.startTime).Round(time.Second).String(),
	}).Info("progress")
}
