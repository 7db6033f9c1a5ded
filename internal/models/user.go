package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Tier is the user's plan level.
type Tier string

const (
	TierFree   Tier = "free"
	TierPro    Tier = "pro"
	TierFamily Tier = "family"
)

// Metadata is a free-form bag persisted as JSONB. It holds transient
// conversational state such as an in-progress notification setup, so
// handlers never need process-global maps.
type Metadata map[string]string

// Value implements driver.Valuer for JSONB storage.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage.
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: unexpected type %T", src)
	}
	return json.Unmarshal(b, m)
}

// User is a chat-identified principal. Exactly one row exists per
// external Telegram chat identity.
type User struct {
	ID            int64     `json:"id" db:"id"`
	ChatID        int64     `json:"chat_id" db:"chat_id"`
	Username      string    `json:"username" db:"username"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Tier          Tier      `json:"tier" db:"tier"`
	SpreadsheetID string    `json:"spreadsheet_id" db:"spreadsheet_id"`
	MirrorEnabled bool      `json:"mirror_enabled" db:"mirror_enabled"`
	Metadata      Metadata  `json:"metadata" db:"metadata"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the best display name for the user.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
