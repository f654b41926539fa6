package insure

import (
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// CoverageRecord is the persisted row for an order, one per order regardless
// of how the order was created. It carries everything needed to rebuild the
// in-memory order on restart.
type CoverageRecord struct {
	ID                uint   `gorm:"primaryKey"`
	OrderID           string `gorm:"uniqueIndex;size:64"`
	MemberID          int64  `gorm:"index"`
	Username          string `gorm:"index;size:64"`
	DisplayName       string `gorm:"size:64"`
	CoverageType      string `gorm:"index;size:16"` // XAN, EXTC
	Duration          int
	XanaxCost         int
	XanaxReward       int
	EDVDsReward       int
	EcstasyReward     int
	AutoDetected      bool
	SenderName        string `gorm:"size:64"`
	Status            string `gorm:"index;size:16"` // pending, active, expired, deleted
	CreatedAt         time.Time
	PaymentReceivedAt *time.Time
	ActivatedAt       *time.Time
	ExpiresAt         *time.Time
}

// ClaimRecord is the persisted row for an overdose report.
type ClaimRecord struct {
	ID            uint   `gorm:"primaryKey"`
	ReportID      string `gorm:"uniqueIndex;size:64"`
	OrderID       string `gorm:"index;size:64"`
	MemberID      int64  `gorm:"index"`
	Username      string `gorm:"index;size:64"`
	CoverageType  string `gorm:"size:16"`
	XanaxReward   int
	PayoutDetails string `gorm:"type:text"`
	ReportedAt    time.Time
	Status        string `gorm:"index;size:16"` // pending, finalized
	FinalizedBy   string `gorm:"size:64"`
	FinalizedAt   *time.Time
}

const statusDeleted = "deleted"

// TransactionRecord tracks xanax moving in (payments received) and out
// (overdose payouts).
type TransactionRecord struct {
	ID              uint   `gorm:"primaryKey"`
	OrderID         string `gorm:"index;size:64"`
	MemberID        int64  `gorm:"index"`
	Username        string `gorm:"index;size:64"`
	TransactionType string `gorm:"index;size:16"` // received, payout
	Amount          int
	TransactionTime time.Time `gorm:"index"`
	Notes           string    `gorm:"type:text"`
}

// LedgerStats summarizes the coverage history.
type LedgerStats struct {
	TotalOrders   int64
	PendingOrders int64
	ActiveOrders  int64
	XANOrders     int64
	EXTCOrders    int64
}

// MemberTotal is one row in the top-payer and top-receiver breakdowns.
type MemberTotal struct {
	Username    string
	TotalAmount int64
}

// CostAnalysis is the income versus payout report.
type CostAnalysis struct {
	ReceivedAmount       int64
	ReceivedTransactions int64
	PaidAmount           int64
	PaidTransactions     int64
	Profit               int64
	TopPayers            []MemberTotal
	TopReceivers         []MemberTotal
}

// Ledger is the SQLite-backed history of orders and xanax transactions. The
// in-memory Store stays authoritative for lifecycle decisions; the ledger is
// append-mostly reporting state.
type Ledger struct {
	db *gorm.DB
}

func OpenLedger(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CoverageRecord{}, &TransactionRecord{}, &ClaimRecord{}); err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AddCoverage records a new order and, when it carries a payment, the
// matching received transaction.
func (l *Ledger) AddCoverage(o *Order) error {
	rec := CoverageRecord{
		OrderID:       o.OrderID,
		MemberID:      o.Member.ID,
		Username:      o.Member.Username,
		DisplayName:   o.Member.DisplayName,
		CoverageType:  string(o.Kind),
		Duration:      o.Parameter(),
		XanaxCost:     o.Payment,
		XanaxReward:   o.Reward,
		EDVDsReward:   o.EDVDsReward,
		EcstasyReward: o.EcstasyReward,
		AutoDetected:  o.AutoDetected,
		SenderName:    o.SenderName,
		Status:        string(StatusPending),
		CreatedAt:     o.CreatedAt,
	}
	if !o.PaymentReceivedAt.IsZero() {
		at := o.PaymentReceivedAt
		rec.PaymentReceivedAt = &at
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if o.Payment <= 0 {
			return nil
		}
		at := o.PaymentReceivedAt
		if at.IsZero() {
			at = o.CreatedAt
		}
		txRec := TransactionRecord{
			OrderID:         o.OrderID,
			MemberID:        o.Member.ID,
			Username:        o.Member.Username,
			TransactionType: "received",
			Amount:          o.Payment,
			TransactionTime: at,
			Notes:           "Coverage payment - " + string(o.Kind),
		}
		return tx.Create(&txRec).Error
	})
}

// ActivateCoverage flips an order's row to active, carrying the reconciled
// payment time and any retroacted creation time along.
func (l *Ledger) ActivateCoverage(o *Order) error {
	updates := map[string]any{
		"status":       string(StatusActive),
		"activated_at": o.ActivatedAt,
		"expires_at":   o.ExpiresAt,
		"created_at":   o.CreatedAt,
	}
	if !o.PaymentReceivedAt.IsZero() {
		updates["payment_received_at"] = o.PaymentReceivedAt
	}
	return l.db.Model(&CoverageRecord{}).
		Where("order_id = ?", o.OrderID).
		Updates(updates).Error
}

// DeleteCoverage marks order rows deleted. Rows are kept for history; only
// the status changes.
func (l *Ledger) DeleteCoverage(orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return l.db.Model(&CoverageRecord{}).
		Where("order_id IN ?", orderIDs).
		Update("status", statusDeleted).Error
}

// ExpireCoverage marks an order row expired.
func (l *Ledger) ExpireCoverage(orderID string) error {
	return l.db.Model(&CoverageRecord{}).
		Where("order_id = ?", orderID).
		Update("status", string(StatusExpired)).Error
}

// AddClaim records a new overdose report.
func (l *Ledger) AddClaim(c *Claim) error {
	rec := ClaimRecord{
		ReportID:      c.ReportID,
		OrderID:       c.OrderID,
		MemberID:      c.Member.ID,
		Username:      c.Member.Username,
		CoverageType:  string(c.Kind),
		XanaxReward:   c.XanaxReward,
		PayoutDetails: c.PayoutDetails,
		ReportedAt:    c.ReportedAt,
		Status:        string(ClaimPending),
	}
	return l.db.Create(&rec).Error
}

// FinalizeClaim marks a report row finalized.
func (l *Ledger) FinalizeClaim(reportID, finalizedBy string, at time.Time) error {
	return l.db.Model(&ClaimRecord{}).
		Where("report_id = ?", reportID).
		Updates(map[string]any{
			"status":       string(ClaimFinalized),
			"finalized_by": finalizedBy,
			"finalized_at": at,
		}).Error
}

// DeleteClaims removes report rows outright.
func (l *Ledger) DeleteClaims(reportIDs []string) error {
	if len(reportIDs) == 0 {
		return nil
	}
	return l.db.Where("report_id IN ?", reportIDs).Delete(&ClaimRecord{}).Error
}

// RestoreInto rebuilds a fresh store from the persisted pending and active
// orders plus all reports, so a new process picks up where the last one
// stopped. Active rows already past their expiry are marked expired instead
// of restored.
func (l *Ledger) RestoreInto(store *Store) error {
	now := time.Now().UTC()

	var recs []CoverageRecord
	if err := l.db.
		Where("status IN ?", []string{string(StatusPending), string(StatusActive)}).
		Order("created_at ASC").
		Find(&recs).Error; err != nil {
		return err
	}
	for _, rec := range recs {
		o := orderFromRecord(rec)
		if rec.Status == string(StatusActive) {
			if rec.ActivatedAt == nil {
				continue
			}
			if rec.ExpiresAt != nil && !now.Before(*rec.ExpiresAt) {
				if err := l.ExpireCoverage(rec.OrderID); err != nil {
					return err
				}
				continue
			}
		}
		if err := store.AddPending(o); err != nil {
			continue
		}
		if rec.PaymentReceivedAt != nil {
			_ = store.RecordPayment(o.OrderID, *rec.PaymentReceivedAt)
		}
		if rec.Status == string(StatusActive) {
			_, _ = store.Promote(o.OrderID, *rec.ActivatedAt)
		}
	}

	var claims []ClaimRecord
	if err := l.db.Order("reported_at ASC").Find(&claims).Error; err != nil {
		return err
	}
	for _, rec := range claims {
		store.RestoreClaim(claimFromRecord(rec))
	}
	return nil
}

func orderFromRecord(rec CoverageRecord) *Order {
	o := &Order{
		OrderID: rec.OrderID,
		Member: Member{
			ID:          rec.MemberID,
			Username:    rec.Username,
			DisplayName: rec.DisplayName,
		},
		Kind:          CoverageKind(rec.CoverageType),
		Payment:       rec.XanaxCost,
		Reward:        rec.XanaxReward,
		EDVDsReward:   rec.EDVDsReward,
		EcstasyReward: rec.EcstasyReward,
		CreatedAt:     rec.CreatedAt,
		AutoDetected:  rec.AutoDetected,
		SenderName:    rec.SenderName,
	}
	if o.Kind == KindEXTC {
		o.Jumps = rec.Duration
	} else {
		o.Hours = rec.Duration
	}
	return o
}

func claimFromRecord(rec ClaimRecord) *Claim {
	c := &Claim{
		ReportID:      rec.ReportID,
		Member:        Member{ID: rec.MemberID, Username: rec.Username},
		OrderID:       rec.OrderID,
		Kind:          CoverageKind(rec.CoverageType),
		XanaxReward:   rec.XanaxReward,
		PayoutDetails: rec.PayoutDetails,
		ReportedAt:    rec.ReportedAt,
		Status:        ClaimStatus(rec.Status),
		FinalizedBy:   rec.FinalizedBy,
	}
	if rec.FinalizedAt != nil {
		c.FinalizedAt = *rec.FinalizedAt
	}
	return c
}

// RecordPayout writes an outgoing xanax transaction for a finalized claim.
func (l *Ledger) RecordPayout(orderID string, member Member, amount int, notes string) error {
	rec := TransactionRecord{
		OrderID:         orderID,
		MemberID:        member.ID,
		Username:        member.Username,
		TransactionType: "payout",
		Amount:          amount,
		TransactionTime: time.Now().UTC(),
		Notes:           notes,
	}
	return l.db.Create(&rec).Error
}

func (l *Ledger) Stats() (LedgerStats, error) {
	var s LedgerStats
	if err := l.db.Model(&CoverageRecord{}).Count(&s.TotalOrders).Error; err != nil {
		return s, err
	}
	if err := l.db.Model(&CoverageRecord{}).Where("status = ?", string(StatusPending)).Count(&s.PendingOrders).Error; err != nil {
		return s, err
	}
	if err := l.db.Model(&CoverageRecord{}).Where("status = ?", string(StatusActive)).Count(&s.ActiveOrders).Error; err != nil {
		return s, err
	}
	if err := l.db.Model(&CoverageRecord{}).Where("coverage_type = ?", string(KindXAN)).Count(&s.XANOrders).Error; err != nil {
		return s, err
	}
	if err := l.db.Model(&CoverageRecord{}).Where("coverage_type = ?", string(KindEXTC)).Count(&s.EXTCOrders).Error; err != nil {
		return s, err
	}
	return s, nil
}

// UserStats returns a member's coverage history, newest first.
func (l *Ledger) UserStats(memberID int64) ([]CoverageRecord, error) {
	var recs []CoverageRecord
	err := l.db.Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

// Analyze computes total xanax in versus out, with per-member top fives.
func (l *Ledger) Analyze() (CostAnalysis, error) {
	var a CostAnalysis

	type sums struct {
		Total int64
		Count int64
	}
	var in, out sums
	if err := l.db.Model(&TransactionRecord{}).
		Where("transaction_type = ?", "received").
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&in).Error; err != nil {
		return a, err
	}
	if err := l.db.Model(&TransactionRecord{}).
		Where("transaction_type = ?", "payout").
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&out).Error; err != nil {
		return a, err
	}
	a.ReceivedAmount, a.ReceivedTransactions = in.Total, in.Count
	a.PaidAmount, a.PaidTransactions = out.Total, out.Count
	a.Profit = a.ReceivedAmount - a.PaidAmount

	if err := l.db.Model(&TransactionRecord{}).
		Where("transaction_type = ?", "received").
		Select("username, SUM(amount) AS total_amount").
		Group("username").
		Order("total_amount DESC").
		Limit(5).
		Scan(&a.TopPayers).Error; err != nil {
		return a, err
	}
	if err := l.db.Model(&TransactionRecord{}).
		Where("transaction_type = ?", "payout").
		Select("username, SUM(amount) AS total_amount").
		Group("username").
		Order("total_amount DESC").
		Limit(5).
		Scan(&a.TopReceivers).Error; err != nil {
		return a, err
	}
	return a, nil
}

// CoverageRecords lists the most recent history rows.
func (l *Ledger) CoverageRecords(limit int) ([]CoverageRecord, error) {
	var recs []CoverageRecord
	q := l.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recs).Error
	return recs, err
}

// TransactionRecords lists the most recent transactions.
func (l *Ledger) TransactionRecords(limit int) ([]TransactionRecord, error) {
	var recs []TransactionRecord
	q := l.db.Order("transaction_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recs).Error
	return recs, err
}
