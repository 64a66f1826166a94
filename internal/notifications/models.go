package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Delivery channels, used as metric labels
const (
	ChannelInApp     = "in_app"
	ChannelWebSocket = "websocket"
	ChannelKafka     = "kafka"
	ChannelEmail     = "email"
)

// Notification is the in-app record of an event, shown in the user's inbox
type Notification struct {
	ID         uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	UserID     uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1"`
	Type       string         `json:"type" gorm:"not null"`
	Title      string         `json:"title" gorm:"not null"`
	Message    string         `json:"message" gorm:"not null"`
	EntityType string         `json:"entityType"`
	EntityID   uuid.UUID      `json:"entityId" gorm:"type:uuid"`
	Data       datatypes.JSON `json:"data,omitempty" gorm:"type:jsonb"`
	ReadAt     *time.Time     `json:"readAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt" gorm:"not null;index:idx_notifications_user_created,priority:2"`
}

// ListFilter narrows a user's inbox
type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// WebSocketMessage types
const (
	WSMessageTypeNotification = "notification"
)
