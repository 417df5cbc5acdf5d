package domain

import "context"

// ChatTransport sends rendered notifications to a chat destination.
// Implementations may fail per call (network, rate limit, chat gone);
// the dispatcher treats every failure as non-fatal.
type ChatTransport interface {
	SendText(ctx context.Context, chatID int64, text string, buttons []Link) error
	SendPhoto(ctx context.Context, chatID int64, mediaRef, caption string, buttons []Link) error
	SendAnimation(ctx context.Context, chatID int64, mediaRef, caption string, buttons []Link) error
}

// DestinationStore is the read side of the persistent chat configuration.
type DestinationStore interface {
	ListDestinationsTracking(tokenAddress string) ([]Destination, error)
	StillExists(chatID int64, tokenAddress string) (bool, error)
}
