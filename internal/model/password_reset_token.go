package model

// PasswordResetToken holds only the sha256 digest of the reset secret.
// The plaintext token is emailed once and never persisted.
type PasswordResetToken struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	TokenHash string `json:"token_hash"`
	Ctime     int64  `json:"ctime"`
	ExpiresAt int64  `json:"expires_at"`
}
