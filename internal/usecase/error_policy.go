package usecase

import (
	"errors"
	"net/http"
	"strings"

	"beta-signup/internal/domain"
	"beta-signup/pkg/i18n"
)

type PolicyMode string

const (
	// PolicyStatus maps backend status codes to distinct messages.
	PolicyStatus PolicyMode = "status"
	// PolicyLegacy reports every non-2xx answer as a duplicate email, always
	// in English.
	PolicyLegacy PolicyMode = "legacy"
)

// SubmissionErrorPolicy turns a Submitter failure into the banner shown to
// the visitor.
type SubmissionErrorPolicy struct {
	Mode              PolicyMode
	DuplicateStatuses []int
}

// NewSubmissionErrorPolicy falls back to PolicyStatus for unknown modes and
// to 400/409 when no duplicate statuses are given.
func NewSubmissionErrorPolicy(mode string, duplicateStatuses []int) SubmissionErrorPolicy {
	m := PolicyMode(strings.ToLower(strings.TrimSpace(mode)))
	if m != PolicyLegacy {
		m = PolicyStatus
	}
	if len(duplicateStatuses) == 0 {
		duplicateStatuses = []int{http.StatusBadRequest, http.StatusConflict}
	}
	return SubmissionErrorPolicy{Mode: m, DuplicateStatuses: duplicateStatuses}
}

func (p SubmissionErrorPolicy) Message(err error, lang i18n.Language) string {
	var statusErr *domain.BackendStatusError
	if errors.As(err, &statusErr) {
		if p.Mode == PolicyLegacy {
			return i18n.Sprintf(i18n.English, i18n.KeyErrDuplicate, statusErr.StatusText)
		}
		return i18n.Sprintf(lang, p.statusKey(statusErr.Code), statusErr.StatusText)
	}

	var transportErr *domain.BackendTransportError
	if errors.As(err, &transportErr) {
		return i18n.Sprintf(lang, i18n.KeyErrTransport, transportErr.Err.Error())
	}
	return i18n.Sprintf(lang, i18n.KeyErrTransport, err.Error())
}

func (p SubmissionErrorPolicy) statusKey(code int) string {
	if p.isDuplicate(code) {
		return i18n.KeyErrDuplicate
	}
	if code >= http.StatusInternalServerError {
		return i18n.KeyErrUnavailable
	}
	return i18n.KeyErrRejected
}

func (p SubmissionErrorPolicy) isDuplicate(code int) bool {
	for _, c := range p.DuplicateStatuses {
		if c == code {
			return true
		}
	}
	return false
}
