package model

import "time"

// StoredSession is the persisted form of a conversation session. Payload is
// the session's own JSON encoding; storage treats it as opaque.
type StoredSession struct {
	UpdatedAt time.Time
	ID        string
	Flow      Flow
	Payload   []byte
	UserID    int64
}
