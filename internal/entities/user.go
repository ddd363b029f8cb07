package entities

// Operator is a dashboard user. BusinessID scopes non-admin operators to one
// tenant; zero means platform admin.
type Operator struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	BusinessID   int64  `json:"business_id"`
}
