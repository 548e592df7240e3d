// Package hook dispatches "content saved" events to the handlers registered for them.
package hook

import (
	"context"
	"errors"
)

// ErrNoPostID is returned by Validate for events without a post identifier.
var ErrNoPostID = errors.New("save event without post_id")

// SaveEvent is the notification the CMS emits when a content item is created or updated.
type SaveEvent struct {
	PostID   uint64 `json:"post_id"   form:"post_id"`
	PostType string `json:"post_type" form:"post_type"`
	Revision bool   `json:"revision"  form:"revision"`
	Autosave bool   `json:"autosave"  form:"autosave"`
}

// Validate checks the fields every producer has to send.
func (e SaveEvent) Validate() error {
	if e.PostID == 0 {
		return ErrNoPostID
	}

	return nil
}

// Derived reports whether the save is a platform internal variant (revision or autosave)
// that must not trigger side effects.
func (e SaveEvent) Derived() bool {
	return e.Revision || e.Autosave
}

// Func handles one save event. A returned error halts the dispatch.
type Func func(ctx context.Context, ev SaveEvent) error
