package models

// AuditLog records who did what to which entity.
type AuditLog struct {
	ID         string  `json:"id" db:"id"`
	UserID     *string `json:"user_id,omitempty" db:"user_id"`
	Action     string  `json:"action" db:"action"`
	EntityType string  `json:"entity_type" db:"entity_type"`
	EntityID   *string `json:"entity_id,omitempty" db:"entity_id"`
	IPAddress  *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string  `json:"user_agent" db:"user_agent"`
	CreatedAt  int64   `json:"created_at" db:"created_at"`
}
