package bot

// MessageContext is the platform-neutral shape of one inbound chat message,
// together with the outbound capabilities a command may use. The session
// layer fills Reply and Send with real Discord calls; tests plug in stubs.
type MessageContext struct {
	BotID      string
	GuildID    string
	ChannelID  string
	MessageID  string
	AuthorID   string
	AuthorName string
	Content    string

	// Reply answers in the originating channel, referencing the message.
	Reply func(text string) error
	// Send posts text to an arbitrary channel of the same bot.
	Send func(channelID, text string) error
}
