package model

import "time"

// Profile is a caller account. Unlimited accounts bypass the daily lead cap
// but still accumulate history for dedup.
type Profile struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Unlimited bool      `json:"unlimited"`
	CreatedAt time.Time `json:"created_at"`
}

// QuotaStatus distinguishes why a run produced the number of leads it did.
type QuotaStatus string

const (
	// QuotaUnlimited: the account has no daily cap.
	QuotaUnlimited QuotaStatus = "unlimited"
	// QuotaOK: the full requested count fit inside the remaining allowance.
	QuotaOK QuotaStatus = "ok"
	// QuotaLimited: the request was truncated to the remaining allowance.
	QuotaLimited QuotaStatus = "limited"
	// QuotaExhausted: no allowance remained; the run returned zero leads
	// without searching. A normal terminal state, not an error.
	QuotaExhausted QuotaStatus = "exhausted"
)

// RunStatus is the lifecycle state of a recorded search run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records a single pipeline invocation for a caller.
type Run struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Origin      string      `json:"origin"`
	Requested   int         `json:"requested"`
	Checked     int         `json:"checked"`
	Found       int         `json:"found"`
	QuotaStatus QuotaStatus `json:"quota_status"`
	Status      RunStatus   `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
