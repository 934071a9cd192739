package discord

import (
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/pindoc/internal/command"
	"github.com/notepid/pindoc/internal/history"
)

func TestKindOf(t *testing.T) {
	cases := map[discordgo.ChannelType]history.Kind{
		discordgo.ChannelTypeGuildText:       history.KindText,
		discordgo.ChannelTypeGuildNews:       history.KindAnnouncement,
		discordgo.ChannelTypeGuildVoice:      history.KindVoice,
		discordgo.ChannelTypeGuildStageVoice: history.KindVoice,
		discordgo.ChannelTypeGuildCategory:   history.KindCategory,
		discordgo.ChannelTypeGuildForum:      history.KindOther,
		discordgo.ChannelTypeDM:              history.KindOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, kindOf(in), "type %d", in)
	}
}

func TestChildrenOfOrdersByPosition(t *testing.T) {
	all := []*discordgo.Channel{
		{ID: "b", ParentID: "cat", Position: 2},
		{ID: "x", ParentID: "other", Position: 0},
		{ID: "a", ParentID: "cat", Position: 1},
		{ID: "cat", Type: discordgo.ChannelTypeGuildCategory},
		{ID: "c", ParentID: "cat", Position: 3},
	}

	var ids []string
	for _, ch := range childrenOf(all, "cat") {
		ids = append(ids, ch.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Empty(t, childrenOf(all, "none"))
}

func TestConvertMessage(t *testing.T) {
	ts := time.Date(2021, time.June, 15, 8, 30, 0, 0, time.UTC)
	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Timestamp: ts,
		Pinned:    true,
		Content:   "hi <@1>",
	}

	got := convertMessage(m, "g1", "hi @alice")
	assert.Equal(t, history.Message{
		ID:           "m1",
		ChannelID:    "c1",
		CreatedAt:    ts,
		Pinned:       true,
		CleanContent: "hi @alice",
		URL:          "https://discord.com/channels/g1/c1/m1",
	}, got)

	m.GuildID = "g2"
	assert.Equal(t, "https://discord.com/channels/g2/c1/m1", convertMessage(m, "g1", "").URL)
}

func TestHasAll(t *testing.T) {
	both := int64(discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory)
	assert.True(t, hasAll(both|discordgo.PermissionSendMessages, both))
	assert.False(t, hasAll(discordgo.PermissionViewChannel, both))
}

func TestRequestFrom(t *testing.T) {
	m := &discordgo.Message{
		GuildID:   "g1",
		ChannelID: "c1",
		Content:   "<@42> doc 1/1",
		Author:    &discordgo.User{ID: "u1", Bot: true},
	}
	assert.Equal(t, command.Request{
		GuildID:   "g1",
		ChannelID: "c1",
		AuthorID:  "u1",
		AuthorBot: true,
		BotUserID: "42",
		Content:   "<@42> doc 1/1",
	}, requestFrom(m, "42"))
}

func TestMessageSendAttachesDocument(t *testing.T) {
	ref := &discordgo.MessageReference{MessageID: "m1", ChannelID: "c1"}

	send := messageSend(&command.Reply{Text: "nope"}, ref)
	assert.Equal(t, "nope", send.Content)
	assert.Empty(t, send.Files)
	assert.Same(t, ref, send.Reference)

	send = messageSend(&command.Reply{
		Text:       "Here's the generated summary doc",
		Attachment: &command.Attachment{Name: "summary_doc.md", Data: []byte("# doc\n")},
	}, ref)
	require.Len(t, send.Files, 1)
	assert.Equal(t, "summary_doc.md", send.Files[0].Name)
	data, err := io.ReadAll(send.Files[0].Reader)
	require.NoError(t, err)
	assert.Equal(t, "# doc\n", string(data))
}
