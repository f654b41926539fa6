package insure

import (
	"sort"
	"sync"
)

// XANPrice is the cost/reward pair for one duration tier.
type XANPrice struct {
	Cost   int
	Reward int
}

// EXTCPrice is the cost plus composite reward for one jump-count tier.
type EXTCPrice struct {
	Cost    int
	EDVDs   int
	Xanax   int
	Ecstasy int
}

// PricingTable holds the admin-configured tiers for both coverage kinds.
// It is mutable at runtime and safe for concurrent use. An empty table makes
// the corresponding kind unavailable for purchase; existing orders are
// unaffected.
type PricingTable struct {
	mu   sync.RWMutex
	xan  map[int]XANPrice
	extc map[int]EXTCPrice
}

func NewPricingTable() *PricingTable {
	return &PricingTable{
		xan:  make(map[int]XANPrice),
		extc: make(map[int]EXTCPrice),
	}
}

func (p *PricingTable) SetXAN(hours int, price XANPrice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.xan[hours] = price
}

func (p *PricingTable) SetEXTC(jumps int, price EXTCPrice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extc[jumps] = price
}

func (p *PricingTable) XAN(hours int) (XANPrice, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.xan[hours]
	return price, ok
}

func (p *PricingTable) EXTC(jumps int) (EXTCPrice, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.extc[jumps]
	return price, ok
}

func (p *PricingTable) HasXAN() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.xan) > 0
}

func (p *PricingTable) HasEXTC() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.extc) > 0
}

// XANByCost finds the tier whose cost equals the paid amount, lowest duration
// first for determinism. Payments matching no configured tier are never
// auto-accepted.
func (p *PricingTable) XANByCost(amount int) (int, XANPrice, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, hours := range sortedKeys(p.xan) {
		if p.xan[hours].Cost == amount {
			return hours, p.xan[hours], true
		}
	}
	return 0, XANPrice{}, false
}

// EXTCByCost is the jump-count analogue of XANByCost.
func (p *PricingTable) EXTCByCost(amount int) (int, EXTCPrice, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, jumps := range sortedKeys(p.extc) {
		if p.extc[jumps].Cost == amount {
			return jumps, p.extc[jumps], true
		}
	}
	return 0, EXTCPrice{}, false
}

// XANTiers returns a copy of the XAN tiers for display.
func (p *PricingTable) XANTiers() map[int]XANPrice {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int]XANPrice, len(p.xan))
	for k, v := range p.xan {
		out[k] = v
	}
	return out
}

// EXTCTiers returns a copy of the EXTC tiers for display.
func (p *PricingTable) EXTCTiers() map[int]EXTCPrice {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int]EXTCPrice, len(p.extc))
	for k, v := range p.extc {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
