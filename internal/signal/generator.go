// Package signal produces coefficient recommendations using a tiered
// weighted distribution, one independent generator per channel, each
// enforcing its own cooldown.
package signal

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"signals-client/internal/model"
)

// DefaultCooldown is the cooldown between signal requests in seconds.
const DefaultCooldown = 60

// CooldownActiveError is returned when a signal is requested while the
// channel's cooldown is still armed. It is control flow, not a fault.
type CooldownActiveError struct {
	Remaining int
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active: %d seconds remaining", e.Remaining)
}

// Tier is one probability band of a channel's weighted distribution. A draw
// r ∈ [0,100) selects the first tier with r < Threshold; the produced value
// is then drawn uniformly from [Min, Max).
type Tier struct {
	Threshold float64
	Min       float64
	Max       float64
}

// Config holds configuration for one channel's generator.
type Config struct {
	Channel  model.Channel
	Tiers    []Tier
	Cooldown int        // seconds; DefaultCooldown when <= 0
	Rand     *rand.Rand // time-seeded when nil
}

// StandardTiers is the probability table of the standard channel: roughly 1%
// of draws land in [20,90), 29% in [10,20) and the rest in [1.01,10).
func StandardTiers() []Tier {
	return []Tier{
		{Threshold: 1, Min: 20, Max: 90},
		{Threshold: 30, Min: 10, Max: 20},
		{Threshold: 100, Min: 1.01, Max: 10},
	}
}

// PremiumTiers is the probability table of the premium channel.
func PremiumTiers() []Tier {
	return []Tier{
		{Threshold: 5, Min: 15, Max: 100},
		{Threshold: 25, Min: 10, Max: 15},
		{Threshold: 100, Min: 1.00, Max: 10},
	}
}

// Generator produces signals for a single channel. The two channels of the
// client are two instances of this one component with different tables.
type Generator struct {
	channel  model.Channel
	tiers    []Tier
	cooldown *Cooldown
	duration int

	mu   sync.Mutex
	rng  *rand.Rand
	last *model.Signal
}

// New creates a Generator from the given configuration.
func New(cfg *Config) *Generator {
	duration := DefaultCooldown
	tiers := StandardTiers()
	channel := model.ChannelStandard
	var rng *rand.Rand

	if cfg != nil {
		if cfg.Cooldown > 0 {
			duration = cfg.Cooldown
		}
		if len(cfg.Tiers) > 0 {
			tiers = cfg.Tiers
		}
		if cfg.Channel != "" {
			channel = cfg.Channel
		}
		rng = cfg.Rand
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Generator{
		channel:  channel,
		tiers:    tiers,
		cooldown: NewCooldown(),
		duration: duration,
		rng:      rng,
	}
}

// Channel returns the channel this generator serves.
func (g *Generator) Channel() model.Channel {
	return g.channel
}

// CooldownRemaining returns the seconds left on the channel's cooldown.
func (g *Generator) CooldownRemaining() int {
	return g.cooldown.Remaining()
}

// Last returns the most recently generated signal, if any. It is superseded
// by every successful Request and never persisted.
func (g *Generator) Last() (model.Signal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return model.Signal{}, false
	}
	return *g.last, true
}

// Request produces one coefficient recommendation. While the channel's
// cooldown is armed it fails with CooldownActiveError and leaves both the
// last signal and the cooldown untouched; on success it records the signal
// and arms the cooldown.
func (g *Generator) Request() (model.Signal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if remaining := g.cooldown.Remaining(); remaining > 0 {
		return model.Signal{}, &CooldownActiveError{Remaining: remaining}
	}

	value := Sample(g.rng, g.tiers)
	sig := model.Signal{
		Value:       value,
		GeneratedAt: time.Now(),
		Channel:     g.channel,
	}

	g.last = &sig
	g.cooldown.Start(g.duration)

	log.Debug().
		Str("channel", string(g.channel)).
		Float64("value", value).
		Msg("Signal generated")

	return sig, nil
}

// Sample draws one coefficient from the tiered distribution: a uniform
// r ∈ [0,100) selects the tier, a second uniform draw is scaled into the
// tier's sub-range, and the result is rounded to two decimal places.
func Sample(rng *rand.Rand, tiers []Tier) float64 {
	tier := SelectTier(rng.Float64()*100, tiers)
	value := tier.Min + rng.Float64()*(tier.Max-tier.Min)
	return RoundCoefficient(value)
}

// SelectTier maps a draw r ∈ [0,100) to a tier: the first tier whose
// Threshold exceeds r wins, and the last tier catches everything else.
func SelectTier(r float64, tiers []Tier) Tier {
	for _, tier := range tiers {
		if r < tier.Threshold {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}

// RoundCoefficient rounds a coefficient to exactly two decimal places.
func RoundCoefficient(v float64) float64 {
	return math.Round(v*100) / 100
}
