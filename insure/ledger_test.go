package insure

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger(filepath.Join(t.TempDir(), "insurance.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLedgerCoverageLifecycle(t *testing.T) {
	l := openTestLedger(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := xanOrder("o1", alice, created)
	o.PaymentReceivedAt = created.Add(-5 * time.Minute)
	if err := l.AddCoverage(o); err != nil {
		t.Fatal(err)
	}

	stats, err := l.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalOrders != 1 || stats.PendingOrders != 1 || stats.XANOrders != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	activated := created.Add(10 * time.Minute)
	o.Status = StatusActive
	o.ActivatedAt = activated
	o.ExpiresAt = activated.Add(12 * time.Hour)
	if err := l.ActivateCoverage(o); err != nil {
		t.Fatal(err)
	}
	stats, err = l.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PendingOrders != 0 || stats.ActiveOrders != 1 {
		t.Fatalf("stats after activation = %+v", stats)
	}

	recs, err := l.UserStats(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Status != string(StatusActive) || recs[0].ActivatedAt == nil {
		t.Fatalf("user history = %+v", recs)
	}
}

func TestLedgerDuplicateOrderRejected(t *testing.T) {
	l := openTestLedger(t)
	created := time.Now().UTC()
	if err := l.AddCoverage(xanOrder("o1", alice, created)); err != nil {
		t.Fatal(err)
	}
	if err := l.AddCoverage(xanOrder("o1", alice, created)); err == nil {
		t.Fatal("duplicate order_id accepted")
	}
}

func TestLedgerCostAnalysis(t *testing.T) {
	l := openTestLedger(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := xanOrder("o1", alice, created)
	a.Payment = 2
	if err := l.AddCoverage(a); err != nil {
		t.Fatal(err)
	}
	b := xanOrder("o2", bob, created)
	b.Payment = 1
	if err := l.AddCoverage(b); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordPayout("o1", alice, 4, "Overdose payout - XAN"); err != nil {
		t.Fatal(err)
	}

	analysis, err := l.Analyze()
	if err != nil {
		t.Fatal(err)
	}
	if analysis.ReceivedAmount != 3 || analysis.ReceivedTransactions != 2 {
		t.Fatalf("received = %d over %d, want 3 over 2", analysis.ReceivedAmount, analysis.ReceivedTransactions)
	}
	if analysis.PaidAmount != 4 || analysis.PaidTransactions != 1 {
		t.Fatalf("paid = %d over %d, want 4 over 1", analysis.PaidAmount, analysis.PaidTransactions)
	}
	if analysis.Profit != -1 {
		t.Fatalf("profit = %d, want -1", analysis.Profit)
	}
	if len(analysis.TopPayers) != 2 || analysis.TopPayers[0].Username != alice.Username {
		t.Fatalf("top payers = %+v", analysis.TopPayers)
	}
	if len(analysis.TopReceivers) != 1 || analysis.TopReceivers[0].TotalAmount != 4 {
		t.Fatalf("top receivers = %+v", analysis.TopReceivers)
	}
}

func TestLedgerRestoreRebuildsStore(t *testing.T) {
	l := openTestLedger(t)
	now := time.Now().UTC().Truncate(time.Second)
	evTime := now.Add(-10 * time.Minute)
	feed := &mockFeed{}
	feed.set("{" + feedEvent("ev1", "You were sent 1x Xanax from Big Bob with HJSx", evTime) + "}")
	e := NewEngine(NewStore(), testPricing(), testRoster(), feed, &mockNotifier{}, l, nil)
	e.now = func() time.Time { return now }

	placed, err := e.PlaceOrder(alice, KindXAN, 24)
	if err != nil {
		t.Fatal(err)
	}
	stats := e.Reconcile(context.Background())
	if stats.Discovered != 1 || stats.Activated != 1 {
		t.Fatalf("stats = %+v, want bob's payment discovered and activated", stats)
	}
	if _, err := e.OpenClaim(bob.ID); err != nil {
		t.Fatal(err)
	}

	restored := NewStore()
	if err := l.RestoreInto(restored); err != nil {
		t.Fatal(err)
	}

	pending := restored.PendingByMember(alice.ID)
	if len(pending) != 1 {
		t.Fatalf("restored pending = %+v, want alice's order", pending)
	}
	p := pending[0]
	if p.OrderID != placed.OrderID || p.Payment != 2 || p.Reward != 8 {
		t.Fatalf("restored order = %+v", p)
	}
	if p.Member.DisplayName != alice.DisplayName {
		t.Fatalf("display name = %q, want %q kept for matching", p.Member.DisplayName, alice.DisplayName)
	}

	active := restored.ActiveByMember(bob.ID, now)
	if len(active) != 1 {
		t.Fatalf("restored active = %+v, want bob's coverage", active)
	}
	live := e.Store().ActiveByMember(bob.ID, now)[0]
	a := active[0]
	if !a.ExpiresAt.Equal(live.ExpiresAt) {
		t.Fatalf("restored expiry = %v, want %v", a.ExpiresAt, live.ExpiresAt)
	}
	if !a.PaymentReceivedAt.Equal(evTime) || !a.AutoDetected {
		t.Fatalf("restored coverage = %+v, want payment time and auto flag kept", a)
	}

	claim, ok := restored.PendingClaimByMember(bob.ID)
	if !ok || claim.XanaxReward != 4 {
		t.Fatalf("restored claim = %+v ok=%v", claim, ok)
	}
}

func TestLedgerRestoreSkipsExpiredAndDeleted(t *testing.T) {
	l := openTestLedger(t)
	past := time.Now().UTC().Add(-48 * time.Hour)
	e := NewEngine(NewStore(), testPricing(), testRoster(), nil, &mockNotifier{}, l, nil)
	e.now = func() time.Time { return past }

	if _, err := e.GiveCoverage(alice, KindXAN, 12, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := e.PlaceOrder(bob, KindXAN, 12); err != nil {
		t.Fatal(err)
	}
	if _, err := e.DeletePendingOrders(bob.ID); err != nil {
		t.Fatal(err)
	}

	restored := NewStore()
	if err := l.RestoreInto(restored); err != nil {
		t.Fatal(err)
	}
	if pending, active := restored.Counts(); pending != 0 || active != 0 {
		t.Fatalf("counts = %d/%d, want nothing restored", pending, active)
	}

	recs, err := l.UserStats(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Status != string(StatusExpired) {
		t.Fatalf("stale active row = %+v, want marked expired", recs)
	}
	recs, err = l.UserStats(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Status != statusDeleted {
		t.Fatalf("deleted row = %+v, want marked deleted", recs)
	}
}

func TestLedgerClaimRowsFollowLifecycle(t *testing.T) {
	l := openTestLedger(t)
	now := time.Now().UTC().Truncate(time.Second)
	e := NewEngine(NewStore(), testPricing(), testRoster(), nil, &mockNotifier{}, l, nil)
	e.now = func() time.Time { return now }

	if _, err := e.GiveCoverage(alice, KindXAN, 12, 4); err != nil {
		t.Fatal(err)
	}
	c, err := e.OpenClaim(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.FinalizeClaim(alice.ID, "mira"); err != nil {
		t.Fatal(err)
	}

	restored := NewStore()
	if err := l.RestoreInto(restored); err != nil {
		t.Fatal(err)
	}
	claims := restored.Claims()
	if len(claims) != 1 {
		t.Fatalf("restored claims = %+v", claims)
	}
	if claims[0].ReportID != c.ReportID || claims[0].Status != ClaimFinalized || claims[0].FinalizedBy != "mira" {
		t.Fatalf("restored claim = %+v, want finalized by mira", claims[0])
	}

	if _, err := e.DeleteClaims(alice.ID); err != nil {
		t.Fatal(err)
	}
	restored = NewStore()
	if err := l.RestoreInto(restored); err != nil {
		t.Fatal(err)
	}
	if got := restored.Claims(); len(got) != 0 {
		t.Fatalf("claims after delete = %+v, want none", got)
	}
}

func TestLedgerZeroPaymentHasNoTransaction(t *testing.T) {
	l := openTestLedger(t)
	o := xanOrder("o1", alice, time.Now().UTC())
	o.Payment = 0
	if err := l.AddCoverage(o); err != nil {
		t.Fatal(err)
	}
	txs, err := l.TransactionRecords(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Fatalf("transactions = %+v, want none for granted coverage", txs)
	}
}
