package insure

import (
	"time"

	"coverbot/logger"
)

const (
	matchLookback = 24 * time.Hour
	matchWindow   = time.Hour
)

// matchOrders walks every pending order against the normalized feed and
// promotes the ones whose payment is visible. The first qualifying event in
// feed order wins; later duplicates are ignored.
func (e *Engine) matchOrders(events []NormalizedEvent, now time.Time) (stillPending, activated int) {
	cutoff := now.Add(-matchLookback)
	mlog := e.log.WithComponent("match")

	for _, o := range e.store.PendingOrders() {
		ev, found := findPayment(o, events, cutoff)
		if !found {
			stillPending++
			continue
		}
		if err := e.store.RecordPayment(o.OrderID, ev.Timestamp); err != nil {
			mlog.WithError(err).WithFields(logger.Fields{"order_id": o.OrderID}).Warn("payment record failed")
			stillPending++
			continue
		}
		promoted, err := e.store.Promote(o.OrderID, now)
		if err != nil {
			mlog.WithError(err).WithFields(logger.Fields{"order_id": o.OrderID}).Warn("promotion failed")
			stillPending++
			continue
		}
		activated++
		e.recordActivation(&promoted)
		mlog.WithFields(logger.Fields{
			"order_id": promoted.OrderID,
			"member":   promoted.Member.Username,
			"event_id": ev.ID,
		}).Info("payment confirmed, coverage activated")
		e.notify(Notification{Kind: NoteOrderActivated, Member: promoted.Member, At: now, Fields: map[string]string{
			"order_id":   promoted.OrderID,
			"coverage":   promoted.CoverageLabel(),
			"expires_at": promoted.ExpiresAt.UTC().Format(time.RFC3339),
		}})
	}
	return stillPending, activated
}

// findPayment scans events in document order for one that pays for the given
// order: a transfer of the order's kind, the exact expected amount, from the
// ordering member, within an hour of the order being placed.
func findPayment(o Order, events []NormalizedEvent, cutoff time.Time) (NormalizedEvent, bool) {
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		if !IsTransfer(ev.Text, o.Kind) {
			continue
		}
		if !AmountMatchesTarget(ev.Text, o.Payment) {
			continue
		}
		if !NameMatchesText(ev.Text, o.Member.Username, o.Member.DisplayName) {
			continue
		}
		delta := ev.Timestamp.Sub(o.CreatedAt)
		if delta < -matchWindow || delta > matchWindow {
			continue
		}
		return ev, true
	}
	return NormalizedEvent{}, false
}
