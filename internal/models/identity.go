package models

import (
	"time"
)

// TelegramUser maps a normalized phone number to the chat that shared it.
type TelegramUser struct {
	Phone     string    `bson:"_id" json:"phone"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
