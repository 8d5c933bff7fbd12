package student

import "time"

// Student holds the per-student interview credit allocation.
type Student struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	OrgID            string    `json:"org_id"`
	Name             string    `json:"name"`
	CreditsAllocated int       `json:"credits_allocated"`
	CreditsUsed      int       `json:"credits_used"`
	CanSelfStart     bool      `json:"can_self_start_interviews"`
	DashboardEnabled bool      `json:"dashboard_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreditsRemaining derives the spendable balance from stored fields.
func (s *Student) CreditsRemaining() int {
	remaining := s.CreditsAllocated - s.CreditsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
