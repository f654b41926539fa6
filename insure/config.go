package insure

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// XANPricingConfig accepts either:
//  1. mapping form (preferred):
//     xan:
//     12: {cost: 1, reward: 4}
//     24: {cost: 2, reward: 8}
//  2. list form:
//     xan:
//     - hours: 12
//     cost: 1
//     reward: 4
type XANPricingConfig struct {
	Items []XANTierConfig
}

type XANTierConfig struct {
	Hours  int `yaml:"hours"`
	Cost   int `yaml:"cost"`
	Reward int `yaml:"reward"`
}

func (x *XANPricingConfig) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.MappingNode:
		items := make([]XANTierConfig, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			k := value.Content[i]
			v := value.Content[i+1]
			hours, err := strconv.Atoi(strings.TrimSpace(k.Value))
			if err != nil {
				return fmt.Errorf("xan pricing key %q: %w", k.Value, err)
			}
			var tmp struct {
				Cost   int `yaml:"cost"`
				Reward int `yaml:"reward"`
			}
			if err := v.Decode(&tmp); err != nil {
				return err
			}
			items = append(items, XANTierConfig{Hours: hours, Cost: tmp.Cost, Reward: tmp.Reward})
		}
		x.Items = items
		return nil
	case yaml.SequenceNode:
		var items []XANTierConfig
		if err := value.Decode(&items); err != nil {
			return err
		}
		x.Items = items
		return nil
	default:
		return nil
	}
}

// EXTCPricingConfig mirrors XANPricingConfig, keyed by jump count.
type EXTCPricingConfig struct {
	Items []EXTCTierConfig
}

type EXTCTierConfig struct {
	Jumps   int `yaml:"jumps"`
	Cost    int `yaml:"cost"`
	EDVDs   int `yaml:"edvds"`
	Xanax   int `yaml:"xanax"`
	Ecstasy int `yaml:"ecstasy"`
}

func (e *EXTCPricingConfig) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.MappingNode:
		items := make([]EXTCTierConfig, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			k := value.Content[i]
			v := value.Content[i+1]
			jumps, err := strconv.Atoi(strings.TrimSpace(k.Value))
			if err != nil {
				return fmt.Errorf("extc pricing key %q: %w", k.Value, err)
			}
			var tmp struct {
				Cost    int `yaml:"cost"`
				EDVDs   int `yaml:"edvds"`
				Xanax   int `yaml:"xanax"`
				Ecstasy int `yaml:"ecstasy"`
			}
			if err := v.Decode(&tmp); err != nil {
				return err
			}
			items = append(items, EXTCTierConfig{
				Jumps:   jumps,
				Cost:    tmp.Cost,
				EDVDs:   tmp.EDVDs,
				Xanax:   tmp.Xanax,
				Ecstasy: tmp.Ecstasy,
			})
		}
		e.Items = items
		return nil
	case yaml.SequenceNode:
		var items []EXTCTierConfig
		if err := value.Decode(&items); err != nil {
			return err
		}
		e.Items = items
		return nil
	default:
		return nil
	}
}

type PricingConfig struct {
	XAN  XANPricingConfig  `yaml:"xan"`
	EXTC EXTCPricingConfig `yaml:"extc"`
}

type MemberConfig struct {
	ID          int64  `yaml:"id"`
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name"`
}

type FeedConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RatePerMinute  int    `yaml:"rate_per_minute"`
}

type SchedulerConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type FileConfig struct {
	// SQLite ledger path. Empty disables persistence.
	DB string `yaml:"db"`

	Feed      FeedConfig      `yaml:"feed"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Roster    []MemberConfig  `yaml:"roster"`
	Pricing   PricingConfig   `yaml:"pricing"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BuildPricing seeds a pricing table from config.
func (c *FileConfig) BuildPricing() *PricingTable {
	t := NewPricingTable()
	for _, tier := range c.Pricing.XAN.Items {
		t.SetXAN(tier.Hours, XANPrice{Cost: tier.Cost, Reward: tier.Reward})
	}
	for _, tier := range c.Pricing.EXTC.Items {
		t.SetEXTC(tier.Jumps, EXTCPrice{
			Cost:    tier.Cost,
			EDVDs:   tier.EDVDs,
			Xanax:   tier.Xanax,
			Ecstasy: tier.Ecstasy,
		})
	}
	return t
}

// BuildRoster converts the configured member list.
func (c *FileConfig) BuildRoster() StaticRoster {
	roster := make(StaticRoster, 0, len(c.Roster))
	for _, m := range c.Roster {
		roster = append(roster, Member{ID: m.ID, Username: m.Username, DisplayName: m.DisplayName})
	}
	return roster
}

// SchedulerInterval returns the configured interval with the default applied.
func (c *FileConfig) SchedulerInterval() time.Duration {
	if c.Scheduler.IntervalMinutes <= 0 {
		return defaultInterval
	}
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}
