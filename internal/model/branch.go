package model

// Branch is a physical or logical store location. Created by admin action and
// immutable once created; stock rows, shifts, and sales are all scoped to one.
type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
