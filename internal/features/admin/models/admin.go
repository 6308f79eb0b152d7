package models

// PoolUsage is one tier pool in the admin stats.
type PoolUsage struct {
	TierLevel int     `json:"tier_level"`
	Tier      string  `json:"tier"`
	Capacity  int64   `json:"capacity"`
	Used      int64   `json:"used"`
	Remaining int64   `json:"remaining"`
	Percent   float64 `json:"percent"`
}

// Stats summarizes the ledger and reward pools.
type Stats struct {
	TotalUsers        int         `json:"total_users"`
	TotalDistributed  int64       `json:"total_distributed"`
	UsersWithWallet   int         `json:"users_with_wallet"`
	TotalReferrals    int64       `json:"total_referrals"`
	UsersPerTier      map[int]int `json:"users_per_tier"`
	Pools             []PoolUsage `json:"pools"`
	PoolUsagePercent  float64     `json:"pool_usage_percent"`
	TotalPoolCapacity int64       `json:"total_pool_capacity"`
	TotalPoolUsed     int64       `json:"total_pool_used"`
}

// ExportRow is one line of the user export.
type ExportRow struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Wallet string `json:"wallet"`
}
