package model

import "time"

// Notification tells a principal that a task was assigned to them.
// UserID is the assignee at the time the notification was raised.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	TaskID    string    `json:"taskId"`
	UserID    string    `json:"userId,omitempty"`
}
