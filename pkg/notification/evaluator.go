package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

type SettingsReader interface {
	GetSettings(ctx context.Context) (domain.SettingsResponse, error)
}

type ProductLister interface {
	QueryActive(ctx context.Context, includeConsumed bool) ([]*entities.Product, error)
	Today() time.Time
}

// Evaluator runs one notification pass over the unconsumed inventory.
type Evaluator struct {
	settings SettingsReader
	products ProductLister
	sink     Sink
}

func NewEvaluator(settings SettingsReader, products ProductLister, sink Sink) *Evaluator {
	return &Evaluator{settings: settings, products: products, sink: sink}
}

func (e *Evaluator) Run(ctx context.Context) (domain.PassReport, error) {
	var report domain.PassReport

	settings, err := e.settings.GetSettings(ctx)
	if err != nil {
		return report, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Enabled {
		report.Skipped = domain.SkipReasonDisabled
		return report, nil
	}
	if !e.sink.Granted(ctx) {
		report.Skipped = domain.SkipReasonPermission
		return report, nil
	}

	products, err := e.products.QueryActive(ctx, false)
	if err != nil {
		return report, fmt.Errorf("load products: %w", err)
	}
	report.Products = len(products)

	thresholds := make(map[int]struct{}, len(settings.NotifyDaysBefore))
	for _, d := range settings.NotifyDaysBefore {
		thresholds[d] = struct{}{}
	}

	today := e.products.Today()
	for _, p := range products {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !expiry.ValidDate(p.ExpiryDate) {
			log.Warnw("skipping product with malformed expiry date", "product_id", p.ID, "expiry_date", p.ExpiryDate)
			report.Failed++
			continue
		}

		n, ok := notificationFor(p, expiry.DaysUntilExpiry(p.ExpiryDate, today), thresholds)
		if !ok {
			continue
		}
		if err := e.sink.Show(ctx, n); err != nil {
			log.Warnw("failed to deliver notification", "product_id", p.ID, "tag", n.Tag, "error", err)
			report.Failed++
			continue
		}
		report.Sent++
	}

	return report, nil
}

func notificationFor(p *entities.Product, days int, thresholds map[int]struct{}) (Notification, bool) {
	switch {
	case days < 0:
		return expiredNotification(p.ID, p.Name, -days), true
	case days == 0:
		return todayNotification(p.ID, p.Name), true
	}
	if _, ok := thresholds[days]; ok {
		return thresholdNotification(p.ID, p.Name, days), true
	}
	return Notification{}, false
}
