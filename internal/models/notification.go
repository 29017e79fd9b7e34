package models

import (
	"time"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationRepost  NotificationType = "repost"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationRepost:
		return true
	}
	return false
}

type Notification struct {
	ID        int64            `json:"id" db:"id"`
	Type      NotificationType `json:"type" db:"type"`
	Text      *string          `json:"text,omitempty" db:"text"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	User      UserMeta         `json:"user"`
}

type PageMeta struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type Page struct {
	Data []Notification `json:"data"`
	Meta PageMeta       `json:"meta"`
}
