package chat

// Conversation identifies one direct-message channel and the user on the
// other side of it.
type Conversation struct {
	ChannelID  string
	PeerUserID string
}
