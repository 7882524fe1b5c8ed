package models

import "errors"

var (
	ErrValidation       = errors.New("validation")        // 400
	ErrAccessDenied     = errors.New("access denied")     // 403
	ErrNotFound         = errors.New("not found")         // 404
	ErrInvalidSignature = errors.New("invalid signature") // 400
	ErrUpstream         = errors.New("upstream")          // 502
)

// VerificationStatus mirrors the per-channel state returned when an order is
// rejected for an unverified account: "verified", "unverified" or
// "not_provided".
type VerificationStatus struct {
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

type UnverifiedAccountError struct {
	Status VerificationStatus
}

func (e *UnverifiedAccountError) Error() string {
	return "please verify your email or mobile number before placing an order"
}

func NewUnverifiedAccountError(u *User) *UnverifiedAccountError {
	st := VerificationStatus{Email: "not_provided", Mobile: "not_provided"}
	if u.Email != "" {
		st.Email = "unverified"
	}
	if u.Mobile != "" {
		st.Mobile = "unverified"
	}
	return &UnverifiedAccountError{Status: st}
}
