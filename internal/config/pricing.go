package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Plan is a purchasable subscription plan.
type Plan struct {
	Kind     string `mapstructure:"kind"`
	PriceKES int64  `mapstructure:"priceKes"`
	Months   int    `mapstructure:"months"`
}

// Pricing is the fixed plan table the payment flow validates against.
type Pricing struct {
	Plans []Plan `mapstructure:"plans"`
}

const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

func DefaultPricing() Pricing {
	return Pricing{
		Plans: []Plan{
			{Kind: PlanMonthly, PriceKES: 300, Months: 1},
			{Kind: PlanYearly, PriceKES: 3600, Months: 12},
		},
	}
}

// Plan returns the plan with the given kind, if configured.
func (p Pricing) Plan(kind string) (Plan, bool) {
	for _, plan := range p.Plans {
		if plan.Kind == kind {
			return plan, true
		}
	}
	return Plan{}, false
}

// YearlyThreshold is the paid amount at and above which a payment is treated
// as a yearly purchase regardless of the plan it was opened with.
func (p Pricing) YearlyThreshold() int64 {
	if plan, ok := p.Plan(PlanYearly); ok {
		return plan.PriceKES
	}
	return DefaultPricing().Plans[1].PriceKES
}

// PlanForAmount resolves a plan from the amount the gateway reports as paid.
// The reported amount is authoritative over the requested plan.
func (p Pricing) PlanForAmount(amount int64) Plan {
	if amount >= p.YearlyThreshold() {
		if plan, ok := p.Plan(PlanYearly); ok {
			return plan
		}
	}
	if plan, ok := p.Plan(PlanMonthly); ok {
		return plan
	}
	return DefaultPricing().Plans[0]
}

// PricingHolder serves the current pricing table and hot-reloads it when the
// backing file changes.
type PricingHolder struct {
	current atomic.Value // holds Pricing
}

func NewPricingHolder() (*PricingHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/elimisha")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ELIMISHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &PricingHolder{}

	if !fileFound {
		holder.current.Store(DefaultPricing())
		return holder, nil
	}

	var pricing Pricing
	if err := v.UnmarshalKey("pricing", &pricing); err != nil {
		return nil, err
	}
	if err := validatePricing(pricing); err != nil {
		return nil, err
	}
	holder.current.Store(pricing)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Pricing
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricing(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingHolder wraps a fixed pricing table, used by tests.
func NewStaticPricingHolder(pricing Pricing) *PricingHolder {
	holder := &PricingHolder{}
	holder.current.Store(pricing)
	return holder
}

func (h *PricingHolder) Get() Pricing {
	return h.current.Load().(Pricing)
}

func validatePricing(pricing Pricing) error {
	if len(pricing.Plans) == 0 {
		return errors.New("pricing.plans cannot be empty")
	}
	for _, plan := range pricing.Plans {
		if plan.Kind == "" || plan.PriceKES <= 0 || plan.Months <= 0 {
			return errors.New("pricing.plans entries need kind, priceKes and months")
		}
	}
	return nil
}
