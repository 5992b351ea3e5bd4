package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/models"
	"github.com/brookstone/whatsapp-bot/internal/services"
)

// VisitLedger is the spreadsheet holding site-visit requests.
type VisitLedger interface {
	ListVisits(ctx context.Context) ([]models.SiteVisit, error)
	UpdateStatus(ctx context.Context, row int, status string) error
}

// VisitCalendar books a site visit on the sales calendar.
type VisitCalendar interface {
	AddVisit(ctx context.Context, visit models.SiteVisit) (string, error)
}

// TextSender delivers the confirmation message.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// Summary reports what one confirmation pass did.
type Summary struct {
	Checked        int `json:"checked"`
	Pending        int `json:"pending"`
	Confirmed      int `json:"confirmed"`
	CalendarFailed int `json:"calendar_failed"`
	SendFailed     int `json:"send_failed"`
	UpdateFailed   int `json:"update_failed"`
	SkippedNoPhone int `json:"skipped_no_phone"`
}

// BookingConfirmationJob confirms new site-visit requests from the ledger
type BookingConfirmationJob struct {
	ledger    VisitLedger
	calendar  VisitCalendar
	sender    TextSender
	templates *services.Templates
	logger    *zap.Logger
	metrics   *metrics.Metrics

	runMu     sync.Mutex
	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewBookingConfirmationJob creates the poller. calendar may be nil, in which
// case confirmed rows are marked as calendar failures.
func NewBookingConfirmationJob(
	ledger VisitLedger,
	calendar VisitCalendar,
	sender TextSender,
	templates *services.Templates,
	logger *zap.Logger,
	m *metrics.Metrics,
) *BookingConfirmationJob {
	return &BookingConfirmationJob{
		ledger:    ledger,
		calendar:  calendar,
		sender:    sender,
		templates: templates,
		logger:    logger,
		metrics:   m,
	}
}

// Start polls the ledger every interval until Stop is called.
func (j *BookingConfirmationJob) Start(ctx context.Context, interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		j.logger.Warn("booking confirmation job already running")
		return
	}
	if interval <= 0 {
		j.logger.Info("booking confirmation polling disabled")
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.isRunning = true
	j.logger.Info("starting booking confirmation job", zap.Duration("interval", interval))

	go j.schedule(ctx, interval)
}

// Stop halts polling and waits for an in-flight pass to finish.
func (j *BookingConfirmationJob) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	cancel, done := j.cancel, j.done
	j.mu.Unlock()

	cancel()
	<-done
	j.logger.Info("booking confirmation job stopped")
}

func (j *BookingConfirmationJob) schedule(ctx context.Context, interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Error("booking confirmation pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce confirms every ledger row with status New and a phone number.
// The calendar event is attempted first and is best-effort; the row is only
// marked confirmed when the WhatsApp message was sent.
func (j *BookingConfirmationJob) RunOnce(ctx context.Context) (Summary, error) {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	var summary Summary

	visits, err := j.ledger.ListVisits(ctx)
	if err != nil {
		return summary, err
	}
	summary.Checked = len(visits)

	for _, visit := range visits {
		if visit.Status != models.VisitStatusNew {
			continue
		}
		if visit.Phone == "" {
			summary.SkippedNoPhone++
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Pending++
		j.confirm(ctx, visit, &summary)
	}

	j.logger.Info("booking confirmation pass complete",
		zap.Int("checked", summary.Checked),
		zap.Int("pending", summary.Pending),
		zap.Int("confirmed", summary.Confirmed),
		zap.Int("send_failed", summary.SendFailed),
	)
	return summary, nil
}

func (j *BookingConfirmationJob) confirm(ctx context.Context, visit models.SiteVisit, summary *Summary) {
	log := j.logger.With(zap.Int("row", visit.Row), zap.String("name", visit.Name))

	calendarAdded := false
	if j.calendar != nil {
		if _, err := j.calendar.AddVisit(ctx, visit); err != nil {
			log.Warn("failed to add site visit to calendar", zap.Error(err))
		} else {
			calendarAdded = true
		}
	}

	to := services.RecipientNumber(visit.Phone)
	if err := j.sender.SendText(ctx, to, j.templates.VisitConfirmation(visit)); err != nil {
		log.Error("failed to send booking confirmation", zap.Error(err))
		summary.SendFailed++
		return
	}

	status := models.VisitStatusConfirmed
	if !calendarAdded {
		status = models.VisitStatusConfirmedNoCalendar
		summary.CalendarFailed++
	}

	if err := j.ledger.UpdateStatus(ctx, visit.Row, status); err != nil {
		log.Error("failed to update site visit status", zap.String("status", status), zap.Error(err))
		summary.UpdateFailed++
		return
	}

	summary.Confirmed++
	j.metrics.RecordBookingConfirmation(status)
	log.Info("site visit confirmed", zap.String("status", status))
}
