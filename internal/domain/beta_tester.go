package domain

import (
	"context"
	"time"

	"beta-signup/pkg/i18n"
)

// BetaTesterSubmission is the record sent to the beta-tester backend. Empty
// optional fields are omitted from the JSON body, never sent as null.
type BetaTesterSubmission struct {
	Email   string `json:"email" validate:"beta_email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Remarks string `json:"remarks,omitempty" validate:"omitempty,max=255"`
}

type Field string

const (
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldRemarks Field = "remarks"
)

func ParseField(s string) (Field, bool) {
	switch Field(s) {
	case FieldEmail, FieldPhone, FieldRemarks:
		return Field(s), true
	}
	return "", false
}

// FormState is one visitor's signup form.
type FormState struct {
	Email             string        `json:"email"`
	Phone             string        `json:"phone"`
	Remarks           string        `json:"remarks"`
	Submitted         bool          `json:"submitted"`
	Submitting        bool          `json:"submitting"`
	SubmittingSince   time.Time     `json:"submitting_since"`
	ErrorMessage      string        `json:"error_message"`
	EmailError        string        `json:"email_error"`
	PhoneError        string        `json:"phone_error"`
	RemarksError      string        `json:"remarks_error"`
	Celebrating       bool          `json:"celebrating"`
	CelebrationEndsAt time.Time     `json:"celebration_ends_at"`
	Language          i18n.Language `json:"language"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (s *FormState) Set(field Field, value string) {
	switch field {
	case FieldEmail:
		s.Email = value
	case FieldPhone:
		s.Phone = value
	case FieldRemarks:
		s.Remarks = value
	}
}

// Clear empties the inputs and their inline errors.
func (s *FormState) Clear() {
	s.Email, s.Phone, s.Remarks = "", "", ""
	s.EmailError, s.PhoneError, s.RemarksError = "", "", ""
}

// Payload builds a fresh submission from the current fields.
func (s *FormState) Payload() *BetaTesterSubmission {
	return &BetaTesterSubmission{
		Email:   s.Email,
		Phone:   s.Phone,
		Remarks: s.Remarks,
	}
}

func (s *FormState) StartCelebration(now time.Time, d time.Duration) {
	s.Celebrating = true
	s.CelebrationEndsAt = now.Add(d)
}

// SettleCelebration turns the celebration off once its end time has passed.
// It reports whether the state changed.
func (s *FormState) SettleCelebration(now time.Time) bool {
	if !s.Celebrating || now.Before(s.CelebrationEndsAt) {
		return false
	}
	s.Celebrating = false
	s.CelebrationEndsAt = time.Time{}
	return true
}

// CelebrationRemaining is zero when no celebration is running.
func (s *FormState) CelebrationRemaining(now time.Time) time.Duration {
	if !s.Celebrating {
		return 0
	}
	if d := s.CelebrationEndsAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// SubmitInput carries fields posted together with a submit. Nil fields keep
// the current form value.
type SubmitInput struct {
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Remarks *string `json:"remarks"`
}

type EditRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// BetaTesterRepository is the beta-tester backend seen from this service.
type BetaTesterRepository interface {
	Create(ctx context.Context, submission *BetaTesterSubmission) error
	Ping(ctx context.Context) error
}

// FormSessionRepository stores FormState per session. Update is atomic per
// session id; a missing session is handed to fn as a zero FormState.
type FormSessionRepository interface {
	Get(ctx context.Context, id string) (*FormState, error)
	Update(ctx context.Context, id string, fn func(state *FormState) error) (*FormState, error)
	Delete(ctx context.Context, id string) error
}

// SignupUsecase owns the form transitions. The session is read from the
// context (KeySessionID).
type SignupUsecase interface {
	State(ctx context.Context) (*FormState, error)
	Edit(ctx context.Context, field Field, value string) (*FormState, error)
	Submit(ctx context.Context, input *SubmitInput) (*FormState, error)
	ToggleLanguage(ctx context.Context) (*FormState, error)
}
