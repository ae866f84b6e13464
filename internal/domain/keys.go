package domain

type CtxKey string

const (
	KeySessionID         CtxKey = "SessionID"
	KeyPreferredLanguage CtxKey = "PreferredLanguage"
	KeyRequestID         CtxKey = "RequestID"
)
