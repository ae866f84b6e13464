package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"beta-signup/internal/domain"
	"beta-signup/pkg/i18n"
	"beta-signup/pkg/logger"
	"beta-signup/pkg/validation"
)

const (
	DefaultCelebration   = 5 * time.Second
	DefaultSubmitLockTTL = 2 * time.Minute
	notifyTimeout        = 30 * time.Second
)

type SignupOptions struct {
	DefaultLanguage i18n.Language
	Celebration     time.Duration
	// SubmitLockTTL is how long a submitting flag may stay set before a new
	// submit is allowed to take it over.
	SubmitLockTTL time.Duration
	Policy        SubmissionErrorPolicy
	// Notifier is optional.
	Notifier domain.SignupNotifier
	Now      func() time.Time
}

type signupUsecase struct {
	sessions domain.FormSessionRepository
	backend  domain.BetaTesterRepository
	validate *validator.Validate
	opts     SignupOptions
}

func NewSignupUsecase(
	sessions domain.FormSessionRepository,
	backend domain.BetaTesterRepository,
	validate *validator.Validate,
	opts SignupOptions,
) domain.SignupUsecase {
	if !opts.DefaultLanguage.Valid() {
		opts.DefaultLanguage = i18n.Chinese
	}
	if opts.Celebration <= 0 {
		opts.Celebration = DefaultCelebration
	}
	if opts.SubmitLockTTL <= 0 {
		opts.SubmitLockTTL = DefaultSubmitLockTTL
	}
	if opts.Policy.Mode == "" {
		opts.Policy = NewSubmissionErrorPolicy("", nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if validate == nil {
		validate = validation.New()
	}

	return &signupUsecase{
		sessions: sessions,
		backend:  backend,
		validate: validate,
		opts:     opts,
	}
}

func (uc *signupUsecase) State(ctx context.Context) (*domain.FormState, error) {
	return uc.update(ctx, func(*domain.FormState) error { return nil })
}

// Edit stores one field and re-validates it.
func (uc *signupUsecase) Edit(ctx context.Context, field domain.Field, value string) (*domain.FormState, error) {
	if _, ok := domain.ParseField(string(field)); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}

	return uc.update(ctx, func(s *domain.FormState) error {
		s.Set(field, value)
		switch field {
		case domain.FieldEmail:
			s.EmailError = validation.Validate(value, s.Language)
		case domain.FieldPhone:
			s.PhoneError = validation.Message(validation.CheckPhone(value), s.Language)
		case domain.FieldRemarks:
			s.RemarksError = validation.Message(validation.CheckRemarks(value), s.Language)
		}
		return nil
	})
}

// Submit validates the form and sends it to the backend. Invalid input
// returns the state with ErrInvalidSubmission and never reaches the network.
func (uc *signupUsecase) Submit(ctx context.Context, input *domain.SubmitInput) (*domain.FormState, error) {
	sessionID, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		payload *domain.BetaTesterSubmission
		invalid bool
	)
	state, err := uc.update(ctx, func(s *domain.FormState) error {
		// The store may replay fn; only the committed attempt counts.
		payload, invalid = nil, false
		applyInput(s, input)

		now := uc.opts.Now()
		if s.Submitting && now.Sub(s.SubmittingSince) < uc.opts.SubmitLockTTL {
			return domain.ErrSubmissionInFlight
		}

		candidate := s.Payload()
		if err := uc.validate.StructCtx(ctx, candidate); err != nil {
			errs := validation.FieldErrors(err, s.Language)
			s.EmailError = errs["email"]
			s.PhoneError = errs["phone"]
			s.RemarksError = errs["remarks"]
			invalid = true
			return nil
		}

		s.EmailError, s.PhoneError, s.RemarksError = "", "", ""
		s.ErrorMessage = ""
		s.Submitted = false
		s.Submitting = true
		s.SubmittingSince = now
		payload = candidate
		return nil
	})
	if errors.Is(err, domain.ErrSubmissionInFlight) {
		return uc.reportInFlight(ctx)
	}
	if err != nil {
		return nil, err
	}
	if invalid {
		return state, domain.ErrInvalidSubmission
	}

	// The result must land in the session even if the visitor goes away.
	submitErr := uc.backend.Create(context.WithoutCancel(ctx), payload)

	state, err = uc.sessions.Update(context.WithoutCancel(ctx), sessionID, func(s *domain.FormState) error {
		now := uc.opts.Now()
		uc.ensureDefaults(ctx, s)
		s.Submitting = false
		s.SubmittingSince = time.Time{}
		s.UpdatedAt = now

		if submitErr != nil {
			s.Submitted = false
			s.ErrorMessage = uc.opts.Policy.Message(submitErr, s.Language)
			return nil
		}

		s.Clear()
		s.Submitted = true
		s.ErrorMessage = ""
		s.StartCelebration(now, uc.opts.Celebration)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if submitErr != nil {
		logger.Log.Warnw("beta tester submission failed", "session_id", sessionID, "error", submitErr)
		return state, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, submitErr)
	}

	logger.Log.Infow("beta tester submitted", "session_id", sessionID)
	uc.notify(payload, state.Language)
	return state, nil
}

// reportInFlight shows the in-flight banner while the earlier submit is
// still running.
func (uc *signupUsecase) reportInFlight(ctx context.Context) (*domain.FormState, error) {
	state, err := uc.update(ctx, func(s *domain.FormState) error {
		if s.Submitting {
			s.ErrorMessage = i18n.Sprintf(s.Language, i18n.KeyErrInFlight)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, domain.ErrSubmissionInFlight
}

// ToggleLanguage switches zh and en and re-localizes pending inline errors.
func (uc *signupUsecase) ToggleLanguage(ctx context.Context) (*domain.FormState, error) {
	return uc.update(ctx, func(s *domain.FormState) error {
		s.Language = s.Language.Toggle()
		if s.EmailError != "" {
			s.EmailError = validation.Validate(s.Email, s.Language)
		}
		if s.PhoneError != "" {
			s.PhoneError = validation.Message(validation.CheckPhone(s.Phone), s.Language)
		}
		if s.RemarksError != "" {
			s.RemarksError = validation.Message(validation.CheckRemarks(s.Remarks), s.Language)
		}
		return nil
	})
}

// update runs fn on the caller's session after filling defaults and settling
// the celebration.
func (uc *signupUsecase) update(ctx context.Context, fn func(*domain.FormState) error) (*domain.FormState, error) {
	sessionID, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return uc.sessions.Update(ctx, sessionID, func(s *domain.FormState) error {
		now := uc.opts.Now()
		uc.ensureDefaults(ctx, s)
		s.SettleCelebration(now)
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = now
		return nil
	})
}

func (uc *signupUsecase) ensureDefaults(ctx context.Context, s *domain.FormState) {
	if s.Language.Valid() {
		return
	}
	if lang, ok := ctx.Value(domain.KeyPreferredLanguage).(i18n.Language); ok && lang.Valid() {
		s.Language = lang
		return
	}
	s.Language = uc.opts.DefaultLanguage
}

func (uc *signupUsecase) notify(payload *domain.BetaTesterSubmission, lang i18n.Language) {
	if uc.opts.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.opts.Notifier.NotifySignup(ctx, payload, string(lang)); err != nil {
			logger.Log.Warnw("signup notification failed", "error", err)
		}
	}()
}

func applyInput(s *domain.FormState, input *domain.SubmitInput) {
	if input == nil {
		return
	}
	if input.Email != nil {
		s.Email = *input.Email
	}
	if input.Phone != nil {
		s.Phone = *input.Phone
	}
	if input.Remarks != nil {
		s.Remarks = *input.Remarks
	}
}

func sessionFromContext(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(domain.KeySessionID).(string)
	if !ok || sessionID == "" {
		return "", domain.ErrSessionMissing
	}
	return sessionID, nil
}
