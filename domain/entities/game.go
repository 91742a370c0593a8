package entities

import (
	"fmt"
)

// GameType identifies one of the configured casino games
type GameType string

const (
	GameTypeSlots GameType = "slots"
	GameTypeDice  GameType = "dice"
	GameTypeDarts GameType = "darts"
)

// PayoutTier maps a draw threshold to a multiplier and a human-readable label.
// Tiers are kept sorted by Min descending so the most specific tier wins.
type PayoutTier struct {
	Min        int
	Multiplier float64
	Label      string
}

// GameConfig is the data-driven definition of a game: the outcome space the
// draw is taken from and the ordered payout table it is mapped through.
type GameConfig struct {
	Type      GameType
	SpaceSize int // draws are uniform over [1, SpaceSize]
	Tiers     []PayoutTier
}

// Outcome is the resolved result of a single draw
type Outcome struct {
	Draw       int
	Multiplier float64
	Label      string
}

// Resolve maps a draw through the payout table. Tiers are evaluated from the
// highest threshold down, so a draw that satisfies several tiers resolves to
// the top one (e.g. the maximum value hits the jackpot tier, not a lower
// range that also contains it).
func (g *GameConfig) Resolve(draw int) (*Outcome, error) {
	if draw < 1 || draw > g.SpaceSize {
		return nil, fmt.Errorf("draw %d outside outcome space [1, %d] for game %s", draw, g.SpaceSize, g.Type)
	}
	for _, tier := range g.Tiers {
		if draw >= tier.Min {
			return &Outcome{
				Draw:       draw,
				Multiplier: tier.Multiplier,
				Label:      tier.Label,
			}, nil
		}
	}
	return nil, fmt.Errorf("payout table for game %s has no tier covering draw %d", g.Type, draw)
}

// MaxMultiplier returns the highest multiplier in the payout table
func (g *GameConfig) MaxMultiplier() float64 {
	var max float64
	for _, tier := range g.Tiers {
		if tier.Multiplier > max {
			max = tier.Multiplier
		}
	}
	return max
}

// Validate checks that the payout table is a total function over the outcome
// space: non-empty, sorted by Min descending, and terminating at Min = 1.
func (g *GameConfig) Validate() error {
	if g.SpaceSize < 1 {
		return fmt.Errorf("game %s has invalid outcome space size %d", g.Type, g.SpaceSize)
	}
	if len(g.Tiers) == 0 {
		return fmt.Errorf("game %s has no payout tiers", g.Type)
	}
	prev := g.SpaceSize + 1
	for i, tier := range g.Tiers {
		if tier.Min >= prev {
			return fmt.Errorf("game %s payout tiers not ordered most-specific-first at index %d", g.Type, i)
		}
		if tier.Min < 1 {
			return fmt.Errorf("game %s payout tier %d has threshold below 1", g.Type, i)
		}
		if tier.Multiplier < 0 {
			return fmt.Errorf("game %s payout tier %d has negative multiplier", g.Type, i)
		}
		prev = tier.Min
	}
	if g.Tiers[len(g.Tiers)-1].Min != 1 {
		return fmt.Errorf("game %s payout table does not cover the full outcome space", g.Type)
	}
	return nil
}

// DefaultGames returns the built-in game set. Slots mirrors the 64-value
// machine (64 is the triple-seven jackpot); dice and darts draw over 1-6.
func DefaultGames() map[GameType]*GameConfig {
	return map[GameType]*GameConfig{
		GameTypeSlots: {
			Type:      GameTypeSlots,
			SpaceSize: 64,
			Tiers: []PayoutTier{
				{Min: 64, Multiplier: 10, Label: "jackpot 777"},
				{Min: 60, Multiplier: 5, Label: "triple"},
				{Min: 50, Multiplier: 2, Label: "double"},
				{Min: 1, Multiplier: 0, Label: "no win"},
			},
		},
		GameTypeDice: {
			Type:      GameTypeDice,
			SpaceSize: 6,
			Tiers: []PayoutTier{
				{Min: 6, Multiplier: 3, Label: "six"},
				{Min: 5, Multiplier: 1.5, Label: "five"},
				{Min: 1, Multiplier: 0, Label: "no win"},
			},
		},
		GameTypeDarts: {
			Type:      GameTypeDarts,
			SpaceSize: 6,
			Tiers: []PayoutTier{
				{Min: 6, Multiplier: 3, Label: "bullseye"},
				{Min: 5, Multiplier: 1.5, Label: "inner ring"},
				{Min: 1, Multiplier: 0, Label: "no win"},
			},
		},
	}
}
