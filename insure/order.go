package insure

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusActive  OrderStatus = "active"
	StatusExpired OrderStatus = "expired"
)

type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimFinalized ClaimStatus = "finalized"
)

var (
	ErrPendingExists = errors.New("member already has a pending order")
	ErrActiveExists  = errors.New("member already has active coverage")
	ErrClaimExists   = errors.New("member already has a pending claim")
	ErrNoPending     = errors.New("no pending order for member")
	ErrNoActive      = errors.New("no active coverage for member")
	ErrNoClaim       = errors.New("no pending claim for member")
	ErrMultipleFound = errors.New("multiple records found; resolve manually")
	ErrNoPricing     = errors.New("no pricing configured for coverage kind")
	ErrNoCredential  = errors.New("no feed credential configured")
	ErrUnknownKind   = errors.New("unknown coverage kind")
)

// Order is one coverage purchase, pending until its payment is reconciled.
type Order struct {
	OrderID           string
	Member            Member
	Kind              CoverageKind
	Hours             int // XAN duration parameter
	Jumps             int // EXTC count parameter
	Payment           int
	Reward            int // Xanax payout, both kinds
	EDVDsReward       int // EXTC only
	EcstasyReward     int // EXTC only
	CreatedAt         time.Time
	PaymentReceivedAt time.Time
	ActivatedAt       time.Time
	ExpiresAt         time.Time
	Status            OrderStatus
	AutoDetected      bool
	SenderName        string
}

// Parameter returns the coverage parameter for the order's kind.
func (o *Order) Parameter() int {
	if o.Kind == KindEXTC {
		return o.Jumps
	}
	return o.Hours
}

// CoverageLabel renders the coverage for notifications and listings.
func (o *Order) CoverageLabel() string {
	if o.Kind == KindEXTC {
		plural := ""
		if o.Jumps != 1 {
			plural = "s"
		}
		return fmt.Sprintf("%d Jump%s Ecstasy (%dH)", o.Jumps, plural, extcCoverageHours)
	}
	return fmt.Sprintf("%dH Xanax", o.Hours)
}

// PayoutDetails renders the reward owed if the member overdoses under this
// coverage.
func (o *Order) PayoutDetails() string {
	if o.Kind == KindEXTC {
		return fmt.Sprintf("%d eDVDs, %d Xanax, %d Ecstasy", o.EDVDsReward, o.Reward, o.EcstasyReward)
	}
	return fmt.Sprintf("%d Xanax", o.Reward)
}

// Claim is one overdose report against an active order.
type Claim struct {
	ReportID      string
	Member        Member
	OrderID       string
	Kind          CoverageKind
	XanaxReward   int
	PayoutDetails string
	ReportedAt    time.Time
	Status        ClaimStatus
	FinalizedBy   string
	FinalizedAt   time.Time
}

// Store is the sole owner of order and claim records plus the discovery dedup
// set. It is constructed once at process start and passed explicitly to every
// component. Accessors return copies; mutations go through Store methods.
type Store struct {
	mu        sync.Mutex
	pending   map[string]*Order
	active    map[string]*Order
	expired   []Order
	claims    map[string]*Claim
	processed map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		pending:   make(map[string]*Order),
		active:    make(map[string]*Order),
		claims:    make(map[string]*Claim),
		processed: make(map[string]struct{}),
	}
}

// AddPending inserts a new pending order, enforcing the at-most-one pending
// and at-most-one active invariant per member.
func (s *Store) AddPending(o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.Member.ID == o.Member.ID {
			return ErrPendingExists
		}
	}
	for _, a := range s.active {
		if a.Member.ID == o.Member.ID {
			return ErrActiveExists
		}
	}
	o.Status = StatusPending
	s.pending[o.OrderID] = o
	return nil
}

// HasOrder reports whether the member holds any pending or active order.
func (s *Store) HasOrder(memberID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.Member.ID == memberID {
			return true
		}
	}
	for _, a := range s.active {
		if a.Member.ID == memberID {
			return true
		}
	}
	return false
}

// PendingOrders returns all pending orders, oldest first.
func (s *Store) PendingOrders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.pending))
	for _, o := range s.pending {
		out = append(out, *o)
	}
	sortOrders(out)
	return out
}

// PendingByMember returns the member's pending orders.
func (s *Store) PendingByMember(memberID int64) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.pending {
		if o.Member.ID == memberID {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out
}

// RecordPayment notes the reconciled payment time on a pending order. When
// the payment preceded the recorded order time, the payment time becomes the
// order's creation time: the feed is ground truth.
func (s *Store) RecordPayment(orderID string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.pending[orderID]
	if !ok {
		return fmt.Errorf("record payment %s: %w", orderID, ErrNoPending)
	}
	o.PaymentReceivedAt = paidAt
	if paidAt.Before(o.CreatedAt) {
		o.CreatedAt = paidAt
	}
	return nil
}

// Promote moves a pending order to active, stamping activation and expiry.
func (s *Store) Promote(orderID string, activatedAt time.Time) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.pending[orderID]
	if !ok {
		return Order{}, fmt.Errorf("promote %s: %w", orderID, ErrNoPending)
	}
	delete(s.pending, orderID)
	o.Status = StatusActive
	o.ActivatedAt = activatedAt
	o.ExpiresAt = activatedAt.Add(o.Kind.CoverageLength(o.Hours))
	s.active[orderID] = o
	return *o, nil
}

// ActiveOrders returns active orders after lazily evicting any whose expiry
// has passed. Expiry is detected only on enumeration; there is no timer.
func (s *Store) ActiveOrders(now time.Time) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	out := make([]Order, 0, len(s.active))
	for _, o := range s.active {
		out = append(out, *o)
	}
	sortOrders(out)
	return out
}

// ActiveByMember returns the member's unexpired active orders.
func (s *Store) ActiveByMember(memberID int64, now time.Time) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	var out []Order
	for _, o := range s.active {
		if o.Member.ID == memberID {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out
}

// ExpiredOrders returns orders evicted by the lazy expiry sweep.
func (s *Store) ExpiredOrders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, len(s.expired))
	copy(out, s.expired)
	return out
}

func (s *Store) sweepLocked(now time.Time) {
	for id, o := range s.active {
		if !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt) {
			delete(s.active, id)
			o.Status = StatusExpired
			s.expired = append(s.expired, *o)
		}
	}
}

// DeletePendingByMember removes the member's pending orders and returns the
// deleted records.
func (s *Store) DeletePendingByMember(memberID int64) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for id, o := range s.pending {
		if o.Member.ID == memberID {
			out = append(out, *o)
			delete(s.pending, id)
		}
	}
	sortOrders(out)
	return out
}

// DeleteActiveByMember removes the member's active orders and returns how
// many were deleted.
func (s *Store) DeleteActiveByMember(memberID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, o := range s.active {
		if o.Member.ID == memberID {
			delete(s.active, id)
			n++
		}
	}
	return n
}

// Counts reports pending and active order counts without sweeping.
func (s *Store) Counts() (pending, active int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), len(s.active)
}

// MarkProcessed records a feed entry id consumed by discovery. The set grows
// for the process lifetime; the feed is bounded to recent history.
func (s *Store) MarkProcessed(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[eventID] = struct{}{}
}

// IsProcessed reports whether discovery already consumed the feed entry.
func (s *Store) IsProcessed(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[eventID]
	return ok
}

// OpenClaim inserts a new claim, enforcing at most one pending claim per
// member.
func (s *Store) OpenClaim(c *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.claims {
		if existing.Member.ID == c.Member.ID && existing.Status == ClaimPending {
			return ErrClaimExists
		}
	}
	c.Status = ClaimPending
	s.claims[c.ReportID] = c
	return nil
}

// PendingClaimByMember returns the member's pending claim, if any.
func (s *Store) PendingClaimByMember(memberID int64) (Claim, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.claims {
		if c.Member.ID == memberID && c.Status == ClaimPending {
			return *c, true
		}
	}
	return Claim{}, false
}

// FinalizeClaim marks the member's single pending claim finalized. The
// referenced order is untouched; coverage runs to natural expiry.
func (s *Store) FinalizeClaim(memberID int64, finalizedBy string, at time.Time) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*Claim
	for _, c := range s.claims {
		if c.Member.ID == memberID && c.Status == ClaimPending {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return Claim{}, ErrNoClaim
	}
	if len(found) > 1 {
		return Claim{}, ErrMultipleFound
	}
	c := found[0]
	c.Status = ClaimFinalized
	c.FinalizedBy = finalizedBy
	c.FinalizedAt = at
	return *c, nil
}

// DeleteClaimsByMember removes the member's claims and returns the deleted
// records.
func (s *Store) DeleteClaimsByMember(memberID int64) []Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Claim
	for id, c := range s.claims {
		if c.Member.ID == memberID {
			out = append(out, *c)
			delete(s.claims, id)
		}
	}
	return out
}

// RestoreClaim reinserts a persisted claim as-is, keeping its status.
func (s *Store) RestoreClaim(c *Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[c.ReportID] = c
}

// Claims returns every claim, newest first.
func (s *Store) Claims() []Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Claim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return out
}

func sortOrders(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderID < orders[j].OrderID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
