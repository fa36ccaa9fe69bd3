package ecs

// System represents a behavior that operates on entities with specific components.
// Systems may declare Query fields; the Scheduler initializes them on
// registration and refreshes them before every execution. Handles kept in
// other fields between frames must be checked with Storage.IsAlive before use.
type System interface {
	Execute(frame *UpdateFrame)
}
