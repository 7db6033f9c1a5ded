package models

import "time"

// NotificationSetting is the per-owner, per-project preference bundle
// read on every record save to decide fan-out targets. Only the three
// notifiable kinds carry target lists.
type NotificationSetting struct {
	ID               int64     `json:"id" db:"id"`
	OwnerChatID      int64     `json:"owner_chat_id" db:"owner_chat_id"`
	Project          string    `json:"project" db:"project"`
	NotifyPersonal   bool      `json:"notify_personal" db:"notify_personal"`
	TransactionChats []int64   `json:"transaction_chats" db:"transaction_chats"`
	TaskChats        []int64   `json:"task_chats" db:"task_chats"`
	IdeaChats        []int64   `json:"idea_chats" db:"idea_chats"`
	Channels         []int64   `json:"channels" db:"channels"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// ChatsFor returns the extra chat targets configured for the given kind.
func (s *NotificationSetting) ChatsFor(kind Kind) []int64 {
	switch kind {
	case KindTransaction:
		return s.TransactionChats
	case KindTask:
		return s.TaskChats
	case KindIdea:
		return s.IdeaChats
	}
	return nil
}

// PersonAlias maps a person name used in free text to a known chat id,
// so tasks like "попроси Машу купить хлеб" land in the right chat.
type PersonAlias struct {
	ID           int64     `json:"id" db:"id"`
	OwnerChatID  int64     `json:"owner_chat_id" db:"owner_chat_id"`
	Name         string    `json:"name" db:"name"`
	TargetChatID int64     `json:"target_chat_id" db:"target_chat_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
