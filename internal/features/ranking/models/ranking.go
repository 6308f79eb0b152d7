package models

// Entry is one leaderboard row.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Points      int64  `json:"points"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
	Badge       string `json:"badge"`
}

// Leaderboard is the top of one tier.
type Leaderboard struct {
	TierLevel   int     `json:"tier_level"`
	Tier        string  `json:"tier"`
	TotalInTier int     `json:"total_in_tier"`
	Entries     []Entry `json:"entries"`
}

// Position is a user's place in the global ranking.
type Position struct {
	UserID string `json:"user_id"`
	Rank   int    `json:"rank"`
	Total  int    `json:"total"`
	Points int64  `json:"points"`
	Tier   string `json:"tier"`
}
