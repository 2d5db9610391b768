package model

// Entity names a stored record type in change notifications.
type Entity string

// Entities.
const (
	EntityAccount     Entity = "account"
	EntityCategory    Entity = "category"
	EntityTransaction Entity = "transaction"
)

// ChangeOp is the kind of mutation a change event reports.
type ChangeOp string

// Change operations.
const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeEvent notifies observers that a record committed a change.
type ChangeEvent struct {
	Entity Entity
	Op     ChangeOp
	ID     int64
}
