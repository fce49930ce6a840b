package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/utils"
	"github.com/slack-go/slack"
)

// Notifier is told when an IP address becomes blacklisted
type Notifier interface {
	IPBlacklisted(ctx context.Context, ip database.IPAddress, alert database.Alert) error
}

// NopNotifier discards notifications
type NopNotifier struct{}

// IPBlacklisted does nothing
func (NopNotifier) IPBlacklisted(context.Context, database.IPAddress, database.Alert) error {
	return nil
}

// maxTitleLen caps the alert title quoted in a notification
const maxTitleLen = 200

// slackPoster is the subset of the slack client the notifier uses
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts blacklist transitions to a Slack channel
type SlackNotifier struct {
	client  slackPoster
	channel string
}

// NewSlackNotifier creates a notifier posting with token into channel
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// IPBlacklisted posts a message naming the address and the alert that triggered it
func (n *SlackNotifier) IPBlacklisted(ctx context.Context, ip database.IPAddress, alert database.Alert) error {
	text := fmt.Sprintf(":no_entry: IP *%s* (%s) is now blacklisted, seen on %d alert(s).\nTriggered by alert #%d: %s",
		ip.Address, ip.SourceType, ip.Count, alert.ID, utils.TruncateText(alert.Title, maxTitleLen))

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	log.Printf("SlackNotifier: Posted blacklist notice for %s to %s", ip.Address, n.channel)
	return nil
}
