// Package slackhist reads channel history from a Slack workspace so digests
// can be rendered from Slack as well as Discord.
package slackhist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/history"
)

// API is the part of *slack.Client the source uses.
type API interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
}

// Source is a history.Source over the Slack Web API. Slack has no
// categories, so every channel resolves as text.
type Source struct {
	api       API
	workspace string
	log       *zap.Logger

	// Retries bounds how often a rate limited call is repeated.
	Retries int
}

// New creates a source for a bot token. workspace is the subdomain used
// in links (https://<workspace>.slack.com); empty falls back to slack.com.
func New(token, workspace string, log *zap.Logger) *Source {
	return NewWithAPI(slack.New(token), workspace, log)
}

// NewWithAPI creates a source over an existing client.
func NewWithAPI(api API, workspace string, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{api: api, workspace: workspace, log: log, Retries: 2}
}

// FetchMessages returns up to limit messages older than beforeID (a Slack
// timestamp), newest-first.
func (s *Source) FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]history.Message, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    beforeID,
		Limit:     limit,
		Inclusive: false,
	}

	var resp *slack.GetConversationHistoryResponse
	err := s.retry(ctx, func() error {
		var err error
		resp, err = s.api.GetConversationHistoryContext(ctx, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("conversation history %s: %w", channelID, err)
	}

	out := make([]history.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := s.convertMessage(channelID, m)
		if err != nil {
			s.log.Warn("skip message with bad timestamp",
				zap.String("channel", channelID),
				zap.String("ts", m.Timestamp),
			)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Channel resolves a conversation by ID.
func (s *Source) Channel(ctx context.Context, id string) (*history.Channel, error) {
	var info *slack.Channel
	err := s.retry(ctx, func() error {
		var err error
		info, err = s.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: id})
		return err
	})
	if err != nil {
		var serr slack.SlackErrorResponse
		if errors.As(err, &serr) && serr.Err == "channel_not_found" {
			return nil, fmt.Errorf("conversation %s: %w", id, history.ErrNotFound)
		}
		return nil, fmt.Errorf("conversation info %s: %w", id, err)
	}

	kind := history.KindText
	if info.IsIM || info.IsMpIM {
		kind = history.KindOther
	}
	return &history.Channel{
		ID:       info.ID,
		GuildID:  s.workspace,
		Name:     info.Name,
		Kind:     kind,
		Viewable: info.IsMember && !info.IsArchived,
		URL:      s.channelURL(info.ID),
	}, nil
}

// retry repeats fn while Slack answers with a rate limit.
func (s *Source) retry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		var rle *slack.RateLimitedError
		if !errors.As(err, &rle) || attempt >= s.Retries {
			return err
		}
		s.log.Debug("rate limited", zap.Duration("retry_after", rle.RetryAfter))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rle.RetryAfter):
		}
	}
}

func (s *Source) convertMessage(channelID string, m slack.Message) (history.Message, error) {
	created, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return history.Message{}, err
	}
	return history.Message{
		ID:           m.Timestamp,
		ChannelID:    channelID,
		CreatedAt:    created,
		Pinned:       len(m.PinnedTo) > 0,
		CleanContent: m.Text,
		URL:          s.channelURL(channelID) + "/p" + strings.Replace(m.Timestamp, ".", "", 1),
	}, nil
}

func (s *Source) channelURL(channelID string) string {
	host := "slack.com"
	if s.workspace != "" {
		host = s.workspace + ".slack.com"
	}
	return "https://" + host + "/archives/" + channelID
}

// parseTimestamp converts a Slack "seconds.micros" timestamp.
func parseTimestamp(ts string) (time.Time, error) {
	secs, micros, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slack timestamp %q: %w", ts, err)
	}
	var usec int64
	if micros != "" {
		if usec, err = strconv.ParseInt(micros, 10, 64); err != nil {
			return time.Time{}, fmt.Errorf("parse slack timestamp %q: %w", ts, err)
		}
	}
	return time.Unix(sec, usec*int64(time.Microsecond)).UTC(), nil
}
