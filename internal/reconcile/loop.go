// Package reconcile keeps the locally cached Identity eventually consistent
// with the remote directory record for the current user, without the user
// taking any action.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"signals-client/internal/model"
	"signals-client/internal/notify"
	"signals-client/internal/session"
)

// DefaultPollInterval is how often the directory is polled.
const DefaultPollInterval = 5 * time.Second

// Directory is the slice of the directory client the loop needs.
type Directory interface {
	ListUsers(ctx context.Context) ([]model.DirectoryRecord, error)
}

// Loop polls the directory on a fixed interval and merges balance and
// referral-count changes into the session store, emitting one notification
// per changed field.
//
// Polls are serialized by skipping: each poll runs synchronously in the loop
// goroutine, so ticks that fire while a slow poll is still running are
// dropped rather than queued or overlapped.
type Loop struct {
	directory Directory
	session   *session.Store
	notifier  notify.Notifier
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Loop. A non-positive interval falls back to
// DefaultPollInterval.
func New(directory Directory, sess *session.Store, notifier notify.Notifier, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Loop{
		directory: directory,
		session:   sess,
		notifier:  notifier,
		interval:  interval,
	}
}

// Start launches the polling goroutine. Starting an already-running loop is
// a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go l.run(ctx, done)
	log.Debug().Dur("interval", l.interval).Msg("Reconciliation loop started")
}

// Stop cancels the loop and waits for it to exit. Any in-flight poll is
// aborted and its result discarded: after Stop returns, no further
// notification is emitted and no state is mutated.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Debug().Msg("Reconciliation loop stopped")
}

// run owns its done channel: Stop nils the field under the mutex, so the
// goroutine must never read it back.
func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.poll(ctx)
		}
	}
}

// poll fetches the directory snapshot and merges changes for the current
// user. Failures are logged and swallowed: staleness is acceptable, a crash
// is not. The next tick retries.
func (l *Loop) poll(ctx context.Context) {
	identity, ok := l.session.Identity()
	if !ok || l.session.IsAdmin() {
		return
	}

	users, err := l.directory.ListUsers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Directory poll failed, will retry next tick")
		return
	}

	// The fetch may have completed right as the loop was cancelled; the
	// result must be discarded in that case.
	if ctx.Err() != nil {
		return
	}

	record, found := findRecord(users, identity.ID)
	if !found {
		return
	}

	balanceChanged := record.Balance != identity.Balance
	referralsChanged := record.ReferralCount != identity.ReferralCount
	if !balanceChanged && !referralsChanged {
		return
	}

	var update model.BalanceUpdate
	if balanceChanged {
		update.Balance = &record.Balance
	}
	if referralsChanged {
		update.ReferralCount = &record.ReferralCount
	}

	if err := l.session.ApplyServerUpdate(update); err != nil {
		log.Warn().Err(err).Msg("Failed to apply directory update")
		return
	}

	if balanceChanged {
		l.notifier.Notify(notify.BalanceChanged(record.Balance))
	}
	if referralsChanged {
		l.notifier.Notify(notify.ReferralCountChanged(record.ReferralCount))
	}

	log.Info().
		Int64("user_id", identity.ID).
		Bool("balance_changed", balanceChanged).
		Bool("referrals_changed", referralsChanged).
		Msg("Identity reconciled with directory")
}

func findRecord(users []model.DirectoryRecord, id int64) (model.DirectoryRecord, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return model.DirectoryRecord{}, false
}
