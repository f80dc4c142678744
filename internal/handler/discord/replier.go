package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	domsvc "FinBot/internal/domain/service"
)

// maxInline is the longest table sent inside a code block instead of a file.
const maxInline = 1950

const fsdLayout = "2006-01-02 15:04:05.000000"

// Replier applies the reply rule and sends results by direct message.
type Replier struct {
	messenger Messenger
	now       func() time.Time
}

func NewReplier(m Messenger) *Replier {
	return &Replier{messenger: m, now: time.Now}
}

func (r *Replier) Reply(ctx context.Context, cmd models.Command, res *models.Result) error {
	content, files := compose(res, r.now())
	return r.messenger.DirectMessage(ctx, cmd.UserID, content, files)
}

func (r *Replier) ReplyError(ctx context.Context, cmd models.Command, msg string) error {
	return r.messenger.DirectMessage(ctx, cmd.UserID, msg, nil)
}

// compose renders a result. Long tables, and results that always ship as
// files, go out as attachments; short tables are inlined with only the chart
// attached.
func compose(res *models.Result, now time.Time) (string, []models.Attachment) {
	var files []models.Attachment
	if res.Chart != nil {
		files = append(files, *res.Chart)
	}

	if res.AlwaysFile || len(res.Text) > maxInline {
		if res.TextName != "" {
			files = append(files, models.Attachment{
				Name:        res.TextName,
				ContentType: "text/plain; charset=utf-8",
				Data:        []byte(res.Text),
			})
		}
		files = append(files, res.Extra...)
		return fmt.Sprintf("[FSD %s] Here's your data: ", now.Format(fsdLayout)) + res.Note, files
	}
	return "```" + strings.TrimSpace(res.Text) + "```" + res.Note, files
}

var _ domsvc.Replier = (*Replier)(nil)

// ChannelSink posts mover alerts to a channel.
type ChannelSink struct {
	messenger Messenger
	channelID string
}

// NewChannelSink posts to channelID unless the alert names its own channel.
func NewChannelSink(m Messenger, channelID string) *ChannelSink {
	return &ChannelSink{messenger: m, channelID: channelID}
}

func (s *ChannelSink) Deliver(ctx context.Context, a models.MoverAlert) error {
	ch := a.ChannelID
	if ch == "" {
		ch = s.channelID
	}
	if ch == "" {
		return fmt.Errorf("no channel for alert %s", a.Symbol)
	}
	return s.messenger.ChannelMessage(ctx, ch, a.Message())
}

var _ drepo.AlertSink = (*ChannelSink)(nil)
