package domain

import "context"

// SignupNotifier tells operators about an accepted signup. Delivery is best
// effort and never affects the visitor's result.
type SignupNotifier interface {
	NotifySignup(ctx context.Context, submission *BetaTesterSubmission, lang string) error
}
