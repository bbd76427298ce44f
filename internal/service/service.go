// Package service contains the business logic behind the HTTP handlers. It
// talks to storage through the store interfaces and publishes realtime
// events through a Broadcaster once the database write has returned.
package service

import (
	"time"

	"github.com/pliu/prava/internal/models"
)

const (
	defaultPageSize    = 20
	defaultMessagePage = 50
	maxPageSize        = 100
)

// Broadcaster is the realtime fan-out. Delivery is best effort: events for
// users without live connections are dropped.
type Broadcaster interface {
	// BroadcastMessage sends msg to every connection in its conversation's
	// room, the sender's included.
	BroadcastMessage(msg *models.Message)
	// NotifyUser sends n to every live connection of userID.
	NotifyUser(userID string, n *models.Notification)
}

// Message is a plain acknowledgement body returned by operations with
// nothing else to report.
type Message struct {
	Message string `json:"message"`
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// pageWindow turns a 1-based page and a limit into limit and offset, applying
// the default for a non-positive limit and capping it at maxPageSize.
func pageWindow(page, limit, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
