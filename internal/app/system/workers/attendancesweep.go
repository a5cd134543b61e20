// internal/app/system/workers/attendancesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	attendancestore "github.com/dalemusser/coursehub/internal/app/store/attendance"
	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.uber.org/zap"
)

// AttendanceSweep is a background worker that reconciles open attendance
// records against live presence. A record stays open after a crash or a
// missed disconnect; the sweep closes any record whose user is no longer
// present in the session and whose join is older than the grace period.
type AttendanceSweep struct {
	attendance *attendancestore.Store
	presence   *hub.Presence
	log        *zap.Logger
	interval   time.Duration
	grace      time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewAttendanceSweep creates a new attendance sweep worker.
//
// Parameters:
//   - attendance: the attendance store
//   - presence: live presence, consulted before closing a record
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
//   - grace: how old a record must be before it can be reconciled (e.g., 2 minutes)
func NewAttendanceSweep(attendance *attendancestore.Store, presence *hub.Presence,
	logger *zap.Logger, interval, grace time.Duration) *AttendanceSweep {
	return &AttendanceSweep{
		attendance: attendance,
		presence:   presence,
		log:        logger,
		interval:   interval,
		grace:      grace,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *AttendanceSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("attendance sweep worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *AttendanceSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("attendance sweep worker stopped")
}

func (w *AttendanceSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one reconciliation pass. Exported so a deploy hook or test can
// trigger a pass without waiting for the ticker.
func (w *AttendanceSweep) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	open, err := w.attendance.ListOpen(ctx)
	if err != nil {
		w.log.Error("failed to list open attendance records", zap.Error(err))
		return
	}

	cutoff := time.Now().UTC().Add(-w.grace)
	var closed int
	for _, rec := range open {
		if rec.JoinedAt.After(cutoff) {
			continue
		}
		if w.presence.UserPresent(hub.SessionGroup(rec.SessionID), rec.UserID.Hex()) {
			continue
		}
		if err := w.attendance.CloseRecord(ctx, rec.ID, models.AttendanceEndReconciled); err != nil {
			w.log.Error("failed to close stale attendance record",
				zap.String("record_id", rec.ID.Hex()),
				zap.String("session_id", rec.SessionID),
				zap.Error(err))
			continue
		}
		closed++
	}

	if closed > 0 {
		w.log.Info("reconciled stale attendance records", zap.Int("count", closed))
	}
}
