package model

type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	EmailVerified bool   `json:"email_verified"`
	VerifiedAt    int64  `json:"verified_at,omitempty"`
	Ctime         int64  `json:"created_at"`
}
