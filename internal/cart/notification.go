package cart

type NotificationKind string

const (
	NotificationAdded   NotificationKind = "added"
	NotificationUpdated NotificationKind = "updated"
	NotificationRemoved NotificationKind = "removed"
)

// Notification is the toast a client shows after a mutation.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}
