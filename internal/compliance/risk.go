package compliance

import "github.com/remnika/wallet/internal/identity"

// Risk bands.
const (
	BandLow    = "LOW"
	BandMedium = "MEDIUM"
	BandHigh   = "HIGH"
)

const (
	unverifiedPenalty  = 40
	kycPendingPenalty  = 20
	kycRejectedPenalty = 80
	maxScore           = 100
)

// RiskScore is an additive heuristic in [0,100]. It is reported, never
// enforced.
func RiskScore(user identity.User) int {
	score := 0
	if !user.IsVerified {
		score += unverifiedPenalty
	}
	switch user.KYCStatus {
	case identity.KYCPending:
		score += kycPendingPenalty
	case identity.KYCRejected:
		score += kycRejectedPenalty
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

// Band maps a score to its reporting band.
func Band(score int) string {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 40:
		return BandMedium
	default:
		return BandLow
	}
}
