package insure

import (
	"time"

	"coverbot/logger"
)

const discoverLookback = time.Hour

// discoverOrders finds recent payments from roster members that no tracked
// order accounts for and creates pending orders for them. Discovery only
// fires when a pricing tier matches the paid amount exactly; an unpriced
// payment stays unprocessed and is retried on the next pass.
func (e *Engine) discoverOrders(events []NormalizedEvent, now time.Time) int {
	if e.roster == nil {
		return 0
	}
	cutoff := now.Add(-discoverLookback)
	dlog := e.log.WithComponent("discover")
	discovered := 0

	for _, ev := range events {
		if ev.ID != "" && e.store.IsProcessed(ev.ID) {
			continue
		}
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		var kind CoverageKind
		switch {
		case IsTransfer(ev.Text, KindXAN):
			kind = KindXAN
		case IsTransfer(ev.Text, KindEXTC):
			kind = KindEXTC
		default:
			continue
		}
		sender := ExtractSenderName(ev.Text)
		if sender == "" {
			continue
		}
		member, ok := ResolveSender(sender, e.roster.Members())
		if !ok {
			dlog.WithFields(logger.Fields{"sender": sender, "event_id": ev.ID}).Debug("sender not on roster")
			continue
		}
		if e.store.HasOrder(member.ID) {
			continue
		}
		amount := ExtractAmount(ev.Text)
		switch amount.Outcome {
		case Matched:
		case Ambiguous:
			dlog.WithFields(logger.Fields{"event_id": ev.ID, "amount": amount.Amount}).Debug("amount inferred from bare number")
		default:
			continue
		}

		o, ok := e.buildDiscoveredOrder(member, kind, amount.Amount, ev)
		if !ok {
			continue
		}
		if err := e.store.AddPending(o); err != nil {
			dlog.WithError(err).WithFields(logger.Fields{"member": member.Username}).Warn("discovered order rejected")
			continue
		}
		if ev.ID != "" {
			e.store.MarkProcessed(ev.ID)
		}
		discovered++
		e.recordCoverage(o)
		dlog.WithFields(logger.Fields{
			"order_id": o.OrderID,
			"member":   member.Username,
			"payment":  o.Payment,
			"coverage": o.CoverageLabel(),
		}).Info("untracked payment, order created")
		e.notify(Notification{Kind: NoteOrderDiscovered, Member: member, At: now, Fields: map[string]string{
			"order_id": o.OrderID,
			"coverage": o.CoverageLabel(),
			"sender":   o.SenderName,
		}})
	}
	return discovered
}

// buildDiscoveredOrder maps a paid amount back to a pricing tier. The order
// is backdated to the payment time so the activation window lines up with
// when the member actually paid.
func (e *Engine) buildDiscoveredOrder(member Member, kind CoverageKind, amount int, ev NormalizedEvent) (*Order, bool) {
	o := &Order{
		OrderID:           orderID(member.ID, ev.Timestamp, true),
		Member:            member,
		Kind:              kind,
		Payment:           amount,
		CreatedAt:         ev.Timestamp,
		PaymentReceivedAt: ev.Timestamp,
		AutoDetected:      true,
		SenderName:        ExtractSenderName(ev.Text),
	}
	switch kind {
	case KindXAN:
		hours, price, ok := e.pricing.XANByCost(amount)
		if !ok {
			return nil, false
		}
		o.Hours = hours
		o.Reward = price.Reward
	case KindEXTC:
		jumps, price, ok := e.pricing.EXTCByCost(amount)
		if !ok {
			return nil, false
		}
		o.Jumps = jumps
		o.Reward = price.Xanax
		o.EDVDsReward = price.EDVDs
		o.EcstasyReward = price.Ecstasy
	default:
		return nil, false
	}
	return o, true
}
