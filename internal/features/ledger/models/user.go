package models

import (
	"sort"
)

// UserRecord is one user's progression state.
type UserRecord struct {
	UserID          string           `json:"user_id"`
	Points          int64            `json:"points"`
	LastClaimAt     int64            `json:"last_claim_at"`
	WalletAddress   string           `json:"wallet_address,omitempty"`
	ReferralApplied bool             `json:"referral_applied"`
	ReferredBy      string           `json:"referred_by,omitempty"`
	TotalReferrals  int64            `json:"total_referrals"`
	CompletedTasks  map[string][]int `json:"completed_tasks,omitempty"`
	DisplayName     string           `json:"display_name,omitempty"`
	CreatedAt       int64            `json:"created_at"`
	UpdatedAt       int64            `json:"updated_at"`
}

// Lookup is the result of a ledger read. Present is false for users with no
// persisted record; Record then holds the zero state for that id.
type Lookup struct {
	Record  UserRecord
	Present bool
}

// NewRecord returns the default state of a user that has never been written.
func NewRecord(userID string) UserRecord {
	return UserRecord{UserID: userID}
}

// Name returns the display name or the "User" + id prefix fallback.
func (u *UserRecord) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	id := u.UserID
	if len(id) > 6 {
		id = id[:6]
	}
	return "User" + id
}

// HasCompleted reports whether the task at index in category was completed.
func (u *UserRecord) HasCompleted(category string, index int) bool {
	for _, i := range u.CompletedTasks[category] {
		if i == index {
			return true
		}
	}
	return false
}

// MarkCompleted records a task completion, keeping the list sorted and unique.
func (u *UserRecord) MarkCompleted(category string, index int) {
	if u.HasCompleted(category, index) {
		return
	}
	if u.CompletedTasks == nil {
		u.CompletedTasks = make(map[string][]int)
	}
	list := append(u.CompletedTasks[category], index)
	sort.Ints(list)
	u.CompletedTasks[category] = list
}

// Clone returns a deep copy.
func (u UserRecord) Clone() UserRecord {
	if u.CompletedTasks != nil {
		tasks := make(map[string][]int, len(u.CompletedTasks))
		for k, v := range u.CompletedTasks {
			tasks[k] = append([]int(nil), v...)
		}
		u.CompletedTasks = tasks
	}
	return u
}

// Touch stamps the record timestamps for a write at now.
func (u *UserRecord) Touch(now int64) {
	if u.CreatedAt == 0 {
		u.CreatedAt = now
	}
	if now > u.UpdatedAt {
		u.UpdatedAt = now
	}
}
