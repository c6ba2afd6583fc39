// Package notify delivers user-facing notifications. The engine emits events;
// how they are rendered is up to the Notifier implementation.
package notify

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Kind classifies a notification.
type Kind string

const (
	KindInfo                 Kind = "info"
	KindError                Kind = "error"
	KindBalanceChanged       Kind = "balance_changed"
	KindReferralCountChanged Kind = "referral_count_changed"
)

// Event is a single user-facing notification.
type Event struct {
	Kind    Kind
	Message string
}

// Notifier receives user-facing notification events.
type Notifier interface {
	Notify(event Event)
}

// Log is a Notifier that writes events to the application log.
type Log struct{}

// Notify logs the event at a level matching its kind.
func (Log) Notify(event Event) {
	if event.Kind == KindError {
		log.Error().Str("kind", string(event.Kind)).Msg(event.Message)
		return
	}
	log.Info().Str("kind", string(event.Kind)).Msg(event.Message)
}

// Info builds an informational event.
func Info(format string, args ...any) Event {
	return Event{Kind: KindInfo, Message: fmt.Sprintf(format, args...)}
}

// Error builds an error event.
func Error(format string, args ...any) Event {
	return Event{Kind: KindError, Message: fmt.Sprintf(format, args...)}
}

// BalanceChanged builds the notification for a reconciled balance change.
func BalanceChanged(balance float64) Event {
	return Event{
		Kind:    KindBalanceChanged,
		Message: fmt.Sprintf("Balance updated: %.2f", balance),
	}
}

// ReferralCountChanged builds the notification for a reconciled referral
// count change.
func ReferralCountChanged(count int) Event {
	return Event{
		Kind:    KindReferralCountChanged,
		Message: fmt.Sprintf("Referrals: %d", count),
	}
}
