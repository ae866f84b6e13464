package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"beta-signup/internal/domain"
	"beta-signup/pkg/email"
)

var ErrNotifierNotConfigured = errors.New("email service is not configured")

type signupNotifier struct {
	emailService *email.EmailService
	now          func() time.Time
}

func NewSignupNotifier(emailService *email.EmailService) domain.SignupNotifier {
	return &signupNotifier{
		emailService: emailService,
		now:          time.Now,
	}
}

// NotifySignup sends the operator email for an accepted submission
func (n *signupNotifier) NotifySignup(ctx context.Context, submission *domain.BetaTesterSubmission, lang string) error {
	if strings.TrimSpace(submission.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if !n.emailService.IsConfigured() {
		return ErrNotifierNotConfigured
	}

	data := email.SignupEmailData{
		Email:       strings.TrimSpace(submission.Email),
		Phone:       strings.TrimSpace(submission.Phone),
		Remarks:     strings.TrimSpace(submission.Remarks),
		Language:    lang,
		SubmittedAt: n.now().UTC(),
	}

	if err := n.emailService.SendSignupEmail(ctx, data); err != nil {
		return fmt.Errorf("failed to send signup email: %w", err)
	}
	return nil
}
