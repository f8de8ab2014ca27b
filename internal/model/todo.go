package model

import "time"

// Todo is a single task owned by exactly one user.
//
// The JSON names follow the browser client, which addresses todos by "_id"
// and passes that value back as the mongoId query parameter.
type Todo struct {
	ID          string    `json:"_id"`
	Owner       string    `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TodoPatch is a partial update. A nil field means "leave unchanged".
//
// POINTER FIELDS:
// With plain values we could not tell {"isCompleted": false} apart from a
// body that doesn't mention isCompleted at all. A *bool is nil when the key
// is absent and non-nil (pointing at false) when it is present.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.IsCompleted == nil
}

// Apply copies the present fields of p onto t and reports whether any value
// actually changed.
func (p TodoPatch) Apply(t *Todo) bool {
	changed := false
	if p.Title != nil && *p.Title != t.Title {
		t.Title = *p.Title
		changed = true
	}
	if p.Description != nil && *p.Description != t.Description {
		t.Description = *p.Description
		changed = true
	}
	if p.IsCompleted != nil && *p.IsCompleted != t.IsCompleted {
		t.IsCompleted = *p.IsCompleted
		changed = true
	}
	return changed
}
