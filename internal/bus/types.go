// Package bus defines the message types and the outbound-sender surface
// between the orchestration core and channel transports.
package bus

// Recognized channels.
const (
	ChannelSMS       = "sms"
	ChannelWhatsApp  = "whatsapp"
	ChannelEmail     = "email"
	ChannelScheduler = "scheduler"
)

// InboundMessage is a message received from a channel transport.
type InboundMessage struct {
	Phone        string `json:"phone"`
	Channel      string `json:"channel"` // "sms" or "whatsapp"
	Content      string `json:"content"`
	MediaContext string `json:"mediaContext,omitempty"` // pre-analysis summary of attached media
}

// OutboundMessage is a message to deliver to a user.
type OutboundMessage struct {
	Phone   string `json:"phone"`
	Channel string `json:"channel"`
	Body    string `json:"body"`
}
