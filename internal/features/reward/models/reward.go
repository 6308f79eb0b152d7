package models

// ClaimResult is returned after a successful claim. Tier and Badge describe the
// tier whose pool paid for the claim; CurrentTier is the tier after crediting.
type ClaimResult struct {
	UserID        string `json:"user_id"`
	Points        int64  `json:"points"`
	Reward        int64  `json:"reward"`
	Tier          string `json:"tier"`
	TierLevel     int    `json:"tier_level"`
	Badge         string `json:"badge"`
	CurrentTier   string `json:"current_tier"`
	LastClaimAt   int64  `json:"last_claim_at"`
	NextClaimAt   int64  `json:"next_claim_at"`
	Message       string `json:"message"`
	TierPromotion bool   `json:"tier_promotion"`
}

// ReferralResult is returned after a referral code was redeemed.
type ReferralResult struct {
	UserID         string `json:"user_id"`
	ReferrerID     string `json:"referrer_id"`
	Points         int64  `json:"points"`
	ReferrerPoints int64  `json:"referrer_points"`
	Reward         int64  `json:"reward"`
	Tier           string `json:"tier"`
	Badge          string `json:"badge"`
	Message        string `json:"message"`
}

// WalletResult is returned after binding a wallet.
type WalletResult struct {
	UserID        string `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	Message       string `json:"message"`
}

// TaskView is one catalog task with the caller's completion flag.
type TaskView struct {
	Category  string `json:"category"`
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Reward    int64  `json:"reward"`
	Completed bool   `json:"completed"`
}

// TaskResult is returned after completing a task.
type TaskResult struct {
	UserID   string `json:"user_id"`
	Category string `json:"category"`
	Index    int    `json:"index"`
	Reward   int64  `json:"reward"`
	Points   int64  `json:"points"`
	Tier     string `json:"tier"`
	Badge    string `json:"badge"`
	Message  string `json:"message"`
}

// Profile is a user's progression overview.
type Profile struct {
	UserID          string `json:"user_id"`
	DisplayName     string `json:"display_name"`
	Points          int64  `json:"points"`
	Tier            string `json:"tier"`
	TierLevel       int    `json:"tier_level"`
	Badge           string `json:"badge"`
	NextTierPoints  int64  `json:"next_tier_points"`
	Progress        int    `json:"progress"`
	Rank            int    `json:"rank,omitempty"`
	TotalRanked     int    `json:"total_ranked"`
	CanClaim        bool   `json:"can_claim"`
	NextClaimIn     int64  `json:"next_claim_in"`
	ReferralCode    string `json:"referral_code"`
	ReferralApplied bool   `json:"referral_applied"`
	ReferredBy      string `json:"referred_by,omitempty"`
	TotalReferrals  int64  `json:"total_referrals"`
	WalletAddress   string `json:"wallet_address,omitempty"`
	Message         string `json:"message"`
}
