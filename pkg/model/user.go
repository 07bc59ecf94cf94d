package model

// User is the identity the gateway stamps on inserted rows.
type User struct {
	ID    string `json:"user_id" db:"user_id"`
	Email string `json:"email,omitempty" db:"email"`
}
