// Package tier maps point totals to the seven ordered evolution tiers.
package tier

import "fmt"

// Tier is one evolution band. Bands are half-open: [MinPoints, MaxPoints).
type Tier struct {
	Level        int    `json:"level"`
	Name         string `json:"name"`
	Badge        string `json:"badge"`
	ClaimCeiling int64  `json:"claim_ceiling"`
	MinPoints    int64  `json:"min_points"`
	// MaxPoints is exclusive; 0 means unbounded.
	MaxPoints int64 `json:"max_points,omitempty"`
}

const (
	MinLevel = 1
	MaxLevel = 7
)

var bands = [MaxLevel]Tier{
	{Level: 1, Name: "Evol 1 – Rookie", ClaimCeiling: 5, MinPoints: 0, MaxPoints: 50},
	{Level: 2, Name: "Evol 2 – Charger", ClaimCeiling: 10, MinPoints: 50, MaxPoints: 15000},
	{Level: 3, Name: "Evol 3 – Breaker", ClaimCeiling: 15, MinPoints: 15000, MaxPoints: 30000},
	{Level: 4, Name: "Evol 4 – Phantom", ClaimCeiling: 20, MinPoints: 30000, MaxPoints: 50000},
	{Level: 5, Name: "Evol 5 – Overdrive", ClaimCeiling: 25, MinPoints: 50000, MaxPoints: 80000},
	{Level: 6, Name: "Evol 6 – Genesis", ClaimCeiling: 30, MinPoints: 80000, MaxPoints: 120000},
	{Level: 7, Name: "Evol 7 – Final Form", ClaimCeiling: 50, MinPoints: 120000},
}

func init() {
	for i := range bands {
		bands[i].Badge = fmt.Sprintf("assets/evol_%d.png", bands[i].Level)
	}
}

// Classify returns the tier holding points. Negative totals are treated as zero.
func Classify(points int64) Tier {
	for i := len(bands) - 1; i >= 0; i-- {
		if points >= bands[i].MinPoints {
			return bands[i]
		}
	}
	return bands[0]
}

// ByLevel returns the tier with the given 1-based level.
func ByLevel(level int) (Tier, bool) {
	if level < MinLevel || level > MaxLevel {
		return Tier{}, false
	}
	return bands[level-1], true
}

// All returns every tier in ascending order.
func All() []Tier {
	out := make([]Tier, len(bands))
	copy(out, bands[:])
	return out
}

// Contains reports whether points fall inside the tier's band.
func (t Tier) Contains(points int64) bool {
	if points < t.MinPoints {
		return points < 0 && t.Level == MinLevel
	}
	return t.MaxPoints == 0 || points < t.MaxPoints
}

// Progress returns the next tier target and the percentage of it reached.
// The top tier reports its own lower bound and 100.
func Progress(points int64) (next int64, pct int) {
	t := Classify(points)
	if t.MaxPoints == 0 {
		return t.MinPoints, 100
	}
	if points < 0 {
		points = 0
	}
	return t.MaxPoints, int(points * 100 / t.MaxPoints)
}
