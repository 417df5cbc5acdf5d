package domain

// Link is one labeled URL attached to a notification.
type Link struct {
	Label string
	URL   string
}

// RenderedNotification is the displayable form of a buy event. It is a
// value type with no identity; delivery consumes it.
type RenderedNotification struct {
	Text  string
	Links []Link
}
