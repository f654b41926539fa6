package insure

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"coverbot/logger"
)

// PassStats aggregates one reconciliation pass. Per-event and per-order
// faults never surface here; the pass reports counts, not partial-failure
// detail.
type PassStats struct {
	RunID        string
	Discovered   int
	Activated    int
	StillPending int
}

// Engine owns the reconciliation flow: feed fetch, new-order discovery,
// matching, and the manual order/claim operations. Every pass and every
// store-mutating operation serializes on mu, so two passes can never
// double-promote or double-create orders.
type Engine struct {
	mu       sync.Mutex
	store    *Store
	pricing  *PricingTable
	roster   Roster
	feed     FeedSource
	notifier Notifier
	ledger   *Ledger
	log      *logger.Log
	now      func() time.Time
}

func NewEngine(store *Store, pricing *PricingTable, roster Roster, feed FeedSource, notifier Notifier, ledger *Ledger, log *logger.Log) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		store:    store,
		pricing:  pricing,
		roster:   roster,
		feed:     feed,
		notifier: notifier,
		ledger:   ledger,
		log:      log,
		now:      time.Now,
	}
}

// Store exposes the engine's order store for read-only listings.
func (e *Engine) Store() *Store { return e.store }

// Pricing exposes the engine's pricing table.
func (e *Engine) Pricing() *PricingTable { return e.pricing }

// Ledger exposes the persisted ledger, which may be nil.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// EnsureFeed reports whether a feed credential is configured, for callers
// that should refuse outright rather than degrade to a skipped pass.
func (e *Engine) EnsureFeed() error {
	if e.feed == nil {
		return ErrNoCredential
	}
	return nil
}

func (e *Engine) notify(n Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.Publish(n)
}

// Reconcile runs one full pass: fetch the feed once, discover untracked
// payments, then confirm pending orders. A failed fetch degrades the pass to
// a no-op; the next scheduled tick retries naturally. Running twice against
// an unchanged feed changes nothing.
func (e *Engine) Reconcile(ctx context.Context) PassStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	stats := PassStats{RunID: uuid.NewString()}
	plog := e.log.WithComponent("engine").WithFields(logger.Fields{"run_id": stats.RunID})

	events, ok := e.fetchFeed(ctx, stats.RunID, now, plog)
	if !ok {
		return stats
	}

	stats.Discovered = e.discoverOrders(events, now)
	stats.StillPending, stats.Activated = e.matchOrders(events, now)

	e.notify(Notification{Kind: NotePassSummary, RunID: stats.RunID, At: now, Fields: map[string]string{
		"discovered":    strconv.Itoa(stats.Discovered),
		"activated":     strconv.Itoa(stats.Activated),
		"still_pending": strconv.Itoa(stats.StillPending),
	}})
	plog.WithFields(logger.Fields{
		"discovered":    stats.Discovered,
		"activated":     stats.Activated,
		"still_pending": stats.StillPending,
	}).Info("reconciliation pass complete")
	return stats
}

// CheckOrders is the manual trigger: matching only, no discovery.
func (e *Engine) CheckOrders(ctx context.Context) PassStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	stats := PassStats{RunID: uuid.NewString()}
	plog := e.log.WithComponent("engine").WithFields(logger.Fields{"run_id": stats.RunID})

	events, ok := e.fetchFeed(ctx, stats.RunID, now, plog)
	if !ok {
		return stats
	}
	stats.StillPending, stats.Activated = e.matchOrders(events, now)
	plog.WithFields(logger.Fields{
		"activated":     stats.Activated,
		"still_pending": stats.StillPending,
	}).Info("order check complete")
	return stats
}

func (e *Engine) fetchFeed(ctx context.Context, runID string, now time.Time, plog *logger.Entry) ([]NormalizedEvent, bool) {
	if e.feed == nil {
		e.notify(Notification{Kind: NoteCredentialMissing, RunID: runID, At: now})
		plog.Warn("no feed credential configured; pass skipped")
		return nil, false
	}
	raw, err := e.feed.FetchEvents(ctx)
	if err != nil {
		plog.WithError(err).Warn("feed fetch failed; pass degraded to no-op")
		return nil, false
	}
	events := NormalizeFeed(raw)
	plog.WithFields(logger.Fields{"events": len(events)}).Debug("feed normalized")
	return events, true
}

// PlaceOrder creates a pending order for a purchase request. Pricing must be
// configured for the kind and the member must hold no other order.
func (e *Engine) PlaceOrder(member Member, kind CoverageKind, param int) (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var o *Order
	switch kind {
	case KindXAN:
		if !e.pricing.HasXAN() {
			return Order{}, fmt.Errorf("XAN: %w", ErrNoPricing)
		}
		price, ok := e.pricing.XAN(param)
		if !ok {
			return Order{}, fmt.Errorf("no XAN pricing tier for %d hours", param)
		}
		o = &Order{Kind: KindXAN, Hours: param, Payment: price.Cost, Reward: price.Reward}
	case KindEXTC:
		if !e.pricing.HasEXTC() {
			return Order{}, fmt.Errorf("EXTC: %w", ErrNoPricing)
		}
		price, ok := e.pricing.EXTC(param)
		if !ok {
			return Order{}, fmt.Errorf("no EXTC pricing tier for %d jumps", param)
		}
		o = &Order{
			Kind:          KindEXTC,
			Jumps:         param,
			Payment:       price.Cost,
			Reward:        price.Xanax,
			EDVDsReward:   price.EDVDs,
			EcstasyReward: price.Ecstasy,
		}
	default:
		return Order{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	o.OrderID = orderID(member.ID, now, false)
	o.Member = member
	o.CreatedAt = now
	if err := e.store.AddPending(o); err != nil {
		return Order{}, err
	}
	e.recordCoverage(o)
	e.notify(Notification{Kind: NoteOrderCreated, Member: member, At: now, Fields: map[string]string{
		"order_id": o.OrderID,
		"coverage": o.CoverageLabel(),
		"payment":  strconv.Itoa(o.Payment),
		"reward":   o.PayoutDetails(),
	}})
	return *o, nil
}

// ActivateOrder promotes a member's single pending order, using the
// reconciled payment time as the activation time when one was recorded.
func (e *Engine) ActivateOrder(memberID int64) (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders := e.store.PendingByMember(memberID)
	if len(orders) == 0 {
		return Order{}, ErrNoPending
	}
	if len(orders) > 1 {
		return Order{}, ErrMultipleFound
	}
	at := orders[0].PaymentReceivedAt
	if at.IsZero() {
		at = e.now()
	}
	promoted, err := e.store.Promote(orders[0].OrderID, at)
	if err != nil {
		return Order{}, err
	}
	e.recordActivation(&promoted)
	e.notify(Notification{Kind: NoteOrderActivated, Member: promoted.Member, At: at, Fields: map[string]string{
		"order_id":   promoted.OrderID,
		"coverage":   promoted.CoverageLabel(),
		"expires_at": promoted.ExpiresAt.UTC().Format(time.RFC3339),
		"manual":     "true",
	}})
	return promoted, nil
}

// GiveCoverage grants a member coverage directly, bypassing payment. The
// pricing table is not consulted; the reward is whatever the operator set.
func (e *Engine) GiveCoverage(member Member, kind CoverageKind, param, reward int) (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	o := &Order{
		OrderID:   orderID(member.ID, now, false),
		Member:    member,
		Kind:      kind,
		Reward:    reward,
		CreatedAt: now,
	}
	switch kind {
	case KindXAN:
		o.Hours = param
	case KindEXTC:
		o.Jumps = param
	default:
		return Order{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err := e.store.AddPending(o); err != nil {
		return Order{}, err
	}
	e.recordCoverage(o)
	promoted, err := e.store.Promote(o.OrderID, now)
	if err != nil {
		return Order{}, err
	}
	e.recordActivation(&promoted)
	e.notify(Notification{Kind: NoteOrderActivated, Member: member, At: now, Fields: map[string]string{
		"order_id": promoted.OrderID,
		"coverage": promoted.CoverageLabel(),
		"granted":  "true",
	}})
	return promoted, nil
}

// DeletePendingOrders removes a member's pending orders.
func (e *Engine) DeletePendingOrders(memberID int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	deleted := e.store.DeletePendingByMember(memberID)
	if len(deleted) == 0 {
		return 0, ErrNoPending
	}
	if e.ledger != nil {
		ids := make([]string, len(deleted))
		for i, o := range deleted {
			ids[i] = o.OrderID
		}
		if err := e.ledger.DeleteCoverage(ids); err != nil {
			e.log.WithComponent("engine").WithError(err).Warn("ledger coverage delete failed")
		}
	}
	return len(deleted), nil
}

// DeleteClaims removes a member's overdose reports.
func (e *Engine) DeleteClaims(memberID int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	deleted := e.store.DeleteClaimsByMember(memberID)
	if len(deleted) == 0 {
		return 0, ErrNoClaim
	}
	if e.ledger != nil {
		ids := make([]string, len(deleted))
		for i, c := range deleted {
			ids[i] = c.ReportID
		}
		if err := e.ledger.DeleteClaims(ids); err != nil {
			e.log.WithComponent("engine").WithError(err).Warn("ledger claim delete failed")
		}
	}
	return len(deleted), nil
}

// OpenClaim reports an overdose against the member's single active order.
func (e *Engine) OpenClaim(memberID int64) (Claim, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	active := e.store.ActiveByMember(memberID, now)
	if len(active) == 0 {
		return Claim{}, ErrNoActive
	}
	if len(active) > 1 {
		return Claim{}, ErrMultipleFound
	}
	o := active[0]
	c := &Claim{
		ReportID:      fmt.Sprintf("%d_%d", memberID, now.UnixNano()),
		Member:        o.Member,
		OrderID:       o.OrderID,
		Kind:          o.Kind,
		XanaxReward:   o.Reward,
		PayoutDetails: o.PayoutDetails(),
		ReportedAt:    now,
	}
	if err := e.store.OpenClaim(c); err != nil {
		return Claim{}, err
	}
	if e.ledger != nil {
		if err := e.ledger.AddClaim(c); err != nil {
			e.log.WithComponent("engine").WithError(err).WithFields(logger.Fields{"report_id": c.ReportID}).Warn("ledger claim write failed")
		}
	}
	e.notify(Notification{Kind: NoteClaimOpened, Member: o.Member, At: now, Fields: map[string]string{
		"report_id": c.ReportID,
		"order_id":  c.OrderID,
		"payout":    c.PayoutDetails,
	}})
	return *c, nil
}

// FinalizeClaim approves the member's pending claim, records the payout, and
// leaves the referenced order active until natural expiry.
func (e *Engine) FinalizeClaim(memberID int64, finalizedBy string) (Claim, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	c, err := e.store.FinalizeClaim(memberID, finalizedBy, now)
	if err != nil {
		return Claim{}, err
	}
	if e.ledger != nil {
		if lerr := e.ledger.FinalizeClaim(c.ReportID, finalizedBy, now); lerr != nil {
			e.log.WithComponent("engine").WithError(lerr).Warn("ledger claim update failed")
		}
		if c.XanaxReward > 0 {
			if lerr := e.ledger.RecordPayout(c.OrderID, c.Member, c.XanaxReward, "Overdose payout - "+string(c.Kind)); lerr != nil {
				e.log.WithComponent("engine").WithError(lerr).Warn("ledger payout write failed")
			}
		}
	}
	e.notify(Notification{Kind: NoteClaimFinalized, Member: c.Member, At: now, Fields: map[string]string{
		"report_id":    c.ReportID,
		"order_id":     c.OrderID,
		"payout":       c.PayoutDetails,
		"finalized_by": finalizedBy,
	}})
	return c, nil
}

func (e *Engine) recordCoverage(o *Order) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.AddCoverage(o); err != nil {
		e.log.WithComponent("engine").WithError(err).WithFields(logger.Fields{"order_id": o.OrderID}).Warn("ledger coverage write failed")
	}
}

func (e *Engine) recordActivation(o *Order) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.ActivateCoverage(o); err != nil {
		e.log.WithComponent("engine").WithError(err).WithFields(logger.Fields{"order_id": o.OrderID}).Warn("ledger activation update failed")
	}
}

func orderID(memberID int64, at time.Time, auto bool) string {
	id := fmt.Sprintf("%d_%d", memberID, at.UnixNano())
	if auto {
		id += "_auto"
	}
	return id
}
