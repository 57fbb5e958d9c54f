package domain

// Channel is the delivery medium of a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is an outbound message to a user.
type Notification struct {
	Channel   Channel
	Recipient string
	Subject   string
	Body      string
}
