package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Task categories.
const (
	CategoryOriginal     = "original"
	CategoryPartnership  = "partnership"
	CategoryCollaborator = "collaborator"
)

// PoolSpec is the capacity of one tier's reward pool.
type PoolSpec struct {
	Tier     int   `toml:"tier"`
	Capacity int64 `toml:"capacity"`
}

// TaskSpec is one catalog entry. Index is its position within the category.
type TaskSpec struct {
	Category string `toml:"category"`
	Name     string `toml:"name"`
	Reward   int64  `toml:"reward"`
}

// Catalog holds pool capacities and the task catalog.
type Catalog struct {
	Pools []PoolSpec `toml:"pool"`
	Tasks []TaskSpec `toml:"task"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Pools: []PoolSpec{
			{Tier: 1, Capacity: 2_500_000},
			{Tier: 2, Capacity: 5_000_000},
			{Tier: 3, Capacity: 7_500_000},
			{Tier: 4, Capacity: 100_000_000},
			{Tier: 5, Capacity: 125_000_000},
			{Tier: 6, Capacity: 1_500_000_000},
			{Tier: 7, Capacity: 2_000_000_000},
		},
		Tasks: []TaskSpec{
			{Category: CategoryOriginal, Name: "Follow Twitter @GXROfficial", Reward: 100},
			{Category: CategoryOriginal, Name: "Join Telegram Channel", Reward: 100},
			{Category: CategoryOriginal, Name: "Share Post on Twitter", Reward: 150},
			{Category: CategoryOriginal, Name: "Invite 5 Friends", Reward: 500},
			{Category: CategoryPartnership, Name: "Complete KYC Verification", Reward: 300},
			{Category: CategoryPartnership, Name: "Trade $100 on DEX", Reward: 800},
			{Category: CategoryPartnership, Name: "Hold 1000 USDT", Reward: 600},
			{Category: CategoryCollaborator, Name: "Create Content Video", Reward: 1000},
			{Category: CategoryCollaborator, Name: "Write Article Review", Reward: 750},
			{Category: CategoryCollaborator, Name: "Design Banner/Logo", Reward: 500},
		},
	}
}

// LoadCatalog returns the default catalog, or the one in path when path is set.
// Sections missing from the file keep their defaults.
func LoadCatalog(path string) (*Catalog, error) {
	def := DefaultCatalog()
	if path == "" {
		return def, nil
	}

	var cat Catalog
	if _, err := toml.DecodeFile(path, &cat); err != nil {
		return nil, fmt.Errorf("decode rewards catalog %s: %w", path, err)
	}
	if len(cat.Pools) == 0 {
		cat.Pools = def.Pools
	}
	if len(cat.Tasks) == 0 {
		cat.Tasks = def.Tasks
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("rewards catalog %s: %w", path, err)
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	seen := make(map[int]bool)
	for _, p := range c.Pools {
		if p.Tier < 1 || p.Tier > 7 {
			return fmt.Errorf("pool tier %d out of range 1..7", p.Tier)
		}
		if p.Capacity < 0 {
			return fmt.Errorf("pool tier %d has negative capacity", p.Tier)
		}
		if seen[p.Tier] {
			return fmt.Errorf("pool tier %d declared twice", p.Tier)
		}
		seen[p.Tier] = true
	}
	for _, t := range c.Tasks {
		switch t.Category {
		case CategoryOriginal, CategoryPartnership, CategoryCollaborator:
		default:
			return fmt.Errorf("task %q has unknown category %q", t.Name, t.Category)
		}
		if t.Reward <= 0 {
			return fmt.Errorf("task %q must have a positive reward", t.Name)
		}
	}
	return nil
}

// Capacities maps tier level to pool capacity. Tiers absent from the catalog get 0.
func (c *Catalog) Capacities() map[int]int64 {
	out := make(map[int]int64, len(c.Pools))
	for _, p := range c.Pools {
		out[p.Tier] = p.Capacity
	}
	return out
}

// TasksIn returns the tasks of one category in declaration order.
func (c *Catalog) TasksIn(category string) []TaskSpec {
	var out []TaskSpec
	for _, t := range c.Tasks {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories lists the task categories in display order.
func Categories() []string {
	return []string{CategoryOriginal, CategoryPartnership, CategoryCollaborator}
}
