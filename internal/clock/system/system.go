// Package system provides the wall clock used to stamp posts and comments.
package system

import "time"

// Clock implements post.Clock and comment.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Unix returns the current time as epoch seconds, the resolution stored in
// created_at columns.
func (c Clock) Unix() int64 {
	return c.Now().Unix()
}
