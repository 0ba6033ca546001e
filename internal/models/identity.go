package models

// Identity is the verified user reference bound to one realtime connection.
// It is resolved once from a credential token and never changes afterwards.
type Identity struct {
	ID          string `json:"id"`
	AccountName string `json:"username"`
	DisplayName string `json:"name"`
}
