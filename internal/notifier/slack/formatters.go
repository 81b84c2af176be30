package slack

import (
	"fmt"

	"github.com/opencourt/rally/internal/matching"
	"github.com/slack-go/slack"
)

var headlines = map[matching.NotificationKind]string{
	matching.NotifyParticipantJoined: ":wave: New join request",
	matching.NotifyRequestAccepted:   ":tada: You're matched",
	matching.NotifyRequestMatched:    ":handshake: Match settled",
	matching.NotifyRequestRejected:   ":no_entry_sign: Not this time",
	matching.NotifyRequestCancelled:  ":x: Request cancelled",
	matching.NotifyRequestExpired:    ":hourglass: Request expired",
}

func formatNotification(n matching.Notification) slack.Message {
	headline, ok := headlines[n.Kind]
	if !ok {
		headline = ":bell: Match update"
	}

	headerText := slack.NewTextBlockObject("plain_text", headline, true, false)
	bodyText := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("<@%s> %s", n.UserID, n.Message), false, false)
	contextText := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Request `%s`", n.RequestID), false, false)

	return slack.NewBlockMessage(
		slack.NewHeaderBlock(headerText),
		slack.NewSectionBlock(bodyText, nil, nil),
		slack.NewContextBlock("", contextText),
	)
}
