// internal/app/greeting_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"holiday_greeter_bot/internal/domain/holiday"
	"holiday_greeter_bot/internal/domain/messaging"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DeliveryReport summarizes one fan-out over a day's holidays.
type DeliveryReport struct {
	Holidays  int
	Attempted int
	Delivered int
	Failed    int
}

// GreetingService delivers the greetings scheduled for a calendar day.
type GreetingService struct {
	holidayRepo holiday.Repository
	sessions    messaging.SessionFactory
	logger      *logrus.Entry
	concurrency int
	sendTimeout time.Duration
}

// NewGreetingService builds the fan-out. concurrency bounds how many holidays are
// delivered at once (1 keeps delivery fully sequential); sendTimeout of 0 disables
// the per-send deadline.
func NewGreetingService(
	hr holiday.Repository,
	sf messaging.SessionFactory,
	logger *logrus.Entry,
	concurrency int,
	sendTimeout time.Duration,
) *GreetingService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &GreetingService{
		holidayRepo: hr,
		sessions:    sf,
		logger:      logger,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
	}
}

type holidayOutcome struct {
	attempted int
	delivered int
	failed    []string
}

// DeliverForDate sends every holiday matching key to each of its recipients.
// A failed recipient never stops the others; only a failed lookup is returned as an error.
func (s *GreetingService) DeliverForDate(ctx context.Context, key holiday.DateKey) (DeliveryReport, error) {
	log := s.logger.WithField("date", key.String())

	holidays, err := s.holidayRepo.FetchByDate(ctx, key)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to fetch holidays for %s: %w", key, err)
	}
	if len(holidays) == 0 {
		log.Info("No holidays scheduled for today.")
		return DeliveryReport{}, nil
	}
	log.WithField("holidays_count", len(holidays)).Info("Delivering holiday greetings")

	outcomes := make([]holidayOutcome, len(holidays))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, h := range holidays {
		i, h := i, h // per-iteration copies; module toolchain is go1.21
		g.Go(func() error {
			outcomes[i] = s.deliverHoliday(ctx, h)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	report := DeliveryReport{Holidays: len(holidays)}
	for _, o := range outcomes {
		report.Attempted += o.attempted
		report.Delivered += o.delivered
		report.Failed += len(o.failed)
	}
	return report, nil
}

func (s *GreetingService) deliverHoliday(ctx context.Context, h *holiday.Holiday) (out holidayOutcome) {
	log := s.logger.WithFields(logrus.Fields{
		"holiday_id":        h.ID,
		"holiday_name":      h.Name,
		"owner_telegram_id": h.OwnerTelegramID,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Delivery panicked: %v", r)
			out.failed = append(out.failed, fmt.Sprintf("<panic: %v>", r))
		}
	}()

	session, err := s.sessions.Open(ctx, h.OwnerTelegramID)
	if err != nil {
		log.WithError(err).WithField("recipients", h.Recipients).Error("Failed to open messaging session, holiday skipped")
		out.attempted = len(h.Recipients)
		out.failed = append(out.failed, h.Recipients...)
		return out
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close messaging session")
		}
	}()

	for _, recipient := range h.Recipients {
		if ctx.Err() != nil {
			log.WithField("recipient", recipient).Warn("Delivery interrupted by shutdown")
			break
		}
		out.attempted++
		if err := s.send(ctx, session, recipient, h.Message); err != nil {
			log.WithError(err).WithField("recipient", recipient).Error("Failed to deliver greeting")
			out.failed = append(out.failed, recipient)
			continue
		}
		out.delivered++
	}

	log.WithFields(logrus.Fields{
		"recipients": h.Recipients,
		"delivered":  out.delivered,
		"failed":     out.failed,
	}).Info("Holiday processed")
	return out
}

func (s *GreetingService) send(ctx context.Context, session messaging.Session, recipient, text string) error {
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}
	return session.Send(ctx, recipient, text)
}
