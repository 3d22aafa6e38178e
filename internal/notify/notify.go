package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrNoDestination is returned when the volunteer has no address to deliver to
var ErrNoDestination = errors.New("no notification destination")

// Message is an access link addressed to one volunteer
type Message struct {
	To            string
	Token         string
	VolunteerName string
	Phone         string
	Link          string
}

// Notifier delivers access links
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes access links to the log instead of delivering them.
// Used when no SMTP host is configured, so it needs no destination address.
type LogNotifier struct{}

// Send logs the link and reports success
func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("volunteer", msg.VolunteerName).
		Str("phone", msg.Phone).
		Str("to", msg.To).
		Str("link", msg.Link).
		Msg("Access link (log notifier)")
	return nil
}
