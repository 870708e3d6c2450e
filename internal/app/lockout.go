package app

import "github.com/cardway/payment-service/internal/domain"

// DefaultLockoutThreshold is the cumulative failure count at which an
// account is blocked: the 10th consecutive wrong password locks it.
const DefaultLockoutThreshold = 10

// loginAllowed is the pure lockout decision: a blocked account may not
// attempt a login, everything else may. It runs before any password
// comparison so a locked account never learns whether its password would
// have matched.
func loginAllowed(user *domain.User) bool {
	return !user.Blocked
}

// applyLoginFailure computes the counter state after one more failed
// attempt. Crossing the threshold sets the blocked flag; an already-set
// flag is never cleared here.
func applyLoginFailure(failedAttempts int, blocked bool, threshold int) (int, bool) {
	newAttempts := failedAttempts + 1
	return newAttempts, blocked || newAttempts >= threshold
}

// applyLoginSuccess computes the counter state after a successful
// authentication: the counter resets, the blocked flag is left as-is.
// Unblocking is exclusively the password reset path's job.
func applyLoginSuccess(blocked bool) (int, bool) {
	return 0, blocked
}
