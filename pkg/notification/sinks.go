package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/internal/utils/mailing"
)

// LogSink writes notifications to the application log.
type LogSink struct{}

func (LogSink) Show(_ context.Context, n Notification) error {
	log.Infow("notification", "title", n.Title, "body", n.Body, "tag", n.Tag)
	return nil
}

func (LogSink) Granted(context.Context) bool { return true }

// MailSink mails each notification to one recipient.
type MailSink struct {
	mailer    mailing.Mailer
	recipient string
	enabled   bool
}

func NewMailSink(mailer mailing.Mailer, config mailing.MailConfig) *MailSink {
	return &MailSink{mailer: mailer, recipient: config.Recipient, enabled: config.Configured()}
}

func (s *MailSink) Show(_ context.Context, n Notification) error {
	return s.mailer.SendMail(s.recipient, n.Title, n.Body)
}

func (s *MailSink) Granted(context.Context) bool {
	return s.enabled && s.mailer != nil
}

// DedupeSink drops a notification whose tag was already shown on the same
// local day.
type DedupeSink struct {
	next  Sink
	clock clock.Clock
	loc   *time.Location

	mu   sync.Mutex
	day  string
	seen map[string]struct{}
}

func NewDedupeSink(next Sink, clk clock.Clock, loc *time.Location) *DedupeSink {
	return &DedupeSink{next: next, clock: clk, loc: loc, seen: map[string]struct{}{}}
}

func (s *DedupeSink) Show(ctx context.Context, n Notification) error {
	today := clock.Today(s.clock, s.loc).Format("2006-01-02")

	s.mu.Lock()
	if s.day != today {
		s.day = today
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[n.Tag]; ok {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.next.Show(ctx, n); err != nil {
		return err
	}

	s.mu.Lock()
	if s.day == today {
		s.seen[n.Tag] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

func (s *DedupeSink) Granted(ctx context.Context) bool {
	return s.next.Granted(ctx)
}

// MultiSink fans out to every granted member.
type MultiSink []Sink

func (m MultiSink) Show(ctx context.Context, n Notification) error {
	var errs []error
	delivered := false
	for _, s := range m {
		if !s.Granted(ctx) {
			continue
		}
		if err := s.Show(ctx, n); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		if len(errs) > 0 {
			log.Warnw("notification partially delivered", "tag", n.Tag, "error", errors.Join(errs...))
		}
		return nil
	}
	return errors.Join(errs...)
}

func (m MultiSink) Granted(ctx context.Context) bool {
	for _, s := range m {
		if s.Granted(ctx) {
			return true
		}
	}
	return false
}
