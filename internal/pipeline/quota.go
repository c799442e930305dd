package pipeline

import "github.com/momentum-leads/rvprospector/internal/model"

// allowedLeads computes how many new leads a caller may receive today.
// Unlimited accounts get the full requested count; everyone else gets
// max(0, min(requested, dailyLimit - usedToday)).
func allowedLeads(requested, dailyLimit, usedToday int, unlimited bool) (int, model.QuotaStatus) {
	if unlimited {
		return requested, model.QuotaUnlimited
	}

	remaining := dailyLimit - usedToday
	if remaining <= 0 {
		return 0, model.QuotaExhausted
	}
	if requested > remaining {
		return remaining, model.QuotaLimited
	}
	return requested, model.QuotaOK
}
