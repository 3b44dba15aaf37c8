// Package notification evaluates the inventory against the user's thresholds
// and delivers expiry reminders on a timer.
package notification

import (
	"context"
	"fmt"
)

const Title = "もったいないアラーム"

type Notification struct {
	Title string
	Body  string
	Tag   string
}

// Sink delivers notifications. Granted reports whether delivery is currently
// permitted; a pass is skipped when it is not.
type Sink interface {
	Show(ctx context.Context, n Notification) error
	Granted(ctx context.Context) bool
}

func thresholdNotification(id int64, name string, days int) Notification {
	return Notification{
		Title: Title,
		Body:  fmt.Sprintf("%s の賞味期限が%d日後です", name, days),
		Tag:   fmt.Sprintf("expiry-%d-%d", id, days),
	}
}

func todayNotification(id int64, name string) Notification {
	return Notification{
		Title: Title,
		Body:  fmt.Sprintf("%s の賞味期限は今日です！", name),
		Tag:   fmt.Sprintf("expiry-%d-today", id),
	}
}

func expiredNotification(id int64, name string, overdue int) Notification {
	return Notification{
		Title: Title,
		Body:  fmt.Sprintf("%s の賞味期限が%d日過ぎています", name, overdue),
		Tag:   fmt.Sprintf("expiry-%d-expired", id),
	}
}
