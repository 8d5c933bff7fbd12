package org

import "time"

// Organization is the tenant-level accounting record for interview capacity.
// QuotaUsed counts org-initiated interviews against QuotaLimit;
// StudentCreditsUsed is a lifetime tally of student-initiated interviews and
// never touches the quota. The two buckets are intentionally separate, and the
// tally only ever grows: refunds restore the student's balance, not this counter.
type Organization struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	Name               string    `json:"name"`
	QuotaLimit         int       `json:"quota_limit"` // 0 means unlimited
	QuotaUsed          int       `json:"quota_used"`
	StudentCreditsUsed int       `json:"student_credits_used"`
	CreatedAt          time.Time `json:"created_at"`
}

// QuotaAvailable reports whether another org-initiated interview fits under the quota.
func (o *Organization) QuotaAvailable() bool {
	return o.QuotaLimit == 0 || o.QuotaUsed < o.QuotaLimit
}

// QuotaRemaining returns the remaining org-initiated headroom, or -1 when unlimited.
func (o *Organization) QuotaRemaining() int {
	if o.QuotaLimit == 0 {
		return -1
	}
	remaining := o.QuotaLimit - o.QuotaUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
