package model

// EmailVerificationCode holds only the sha256 digest of the 6-digit code.
type EmailVerificationCode struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CodeHash  string `json:"code_hash"`
	Ctime     int64  `json:"ctime"`
	ExpiresAt int64  `json:"expires_at"`
}
