package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/pindoc/internal/digest"
	"github.com/notepid/pindoc/internal/history"
	"github.com/notepid/pindoc/internal/history/historytest"
	"github.com/notepid/pindoc/internal/slots"
)

const (
	botID     = "900000000000000001"
	guildID   = "800000000000000001"
	generalID = "100000000000000001"
	catID     = "100000000000000002"
	voiceID   = "100000000000000003"
	hiddenID  = "100000000000000004"
	foreignID = "100000000000000005"
)

type fakePlatform struct {
	*historytest.Memory
	managers map[string]bool
}

func (f *fakePlatform) CanManageMessages(_ context.Context, _, _, userID string) (bool, error) {
	return f.managers[userID], nil
}

func newPlatform() *fakePlatform {
	mem := historytest.NewMemory()
	general := history.Channel{ID: generalID, GuildID: guildID, Name: "general", Kind: history.KindText, Viewable: true, URL: "https://discord.com/channels/g/general"}
	mem.AddChannel(general)
	mem.AddChannel(history.Channel{ID: catID, GuildID: guildID, Name: "projects", Kind: history.KindCategory, Viewable: true, URL: "https://discord.com/channels/g/projects", Children: []history.Channel{general}})
	mem.AddChannel(history.Channel{ID: voiceID, GuildID: guildID, Name: "lounge", Kind: history.KindVoice, Viewable: true})
	mem.AddChannel(history.Channel{ID: hiddenID, GuildID: guildID, Name: "mods", Kind: history.KindText, Viewable: false})
	mem.AddChannel(history.Channel{ID: foreignID, GuildID: "other", Name: "elsewhere", Kind: history.KindText, Viewable: true})
	mem.AddMessages(
		history.Message{ID: "m1", ChannelID: generalID, CreatedAt: time.Date(2021, time.January, 5, 12, 0, 0, 0, time.UTC), Pinned: true, CleanContent: "kickoff notes", URL: "https://discord.com/channels/g/general/m1"},
		history.Message{ID: "m2", ChannelID: generalID, CreatedAt: time.Date(2021, time.January, 6, 12, 0, 0, 0, time.UTC), CleanContent: "chatter", URL: "u2"},
	)
	return &fakePlatform{Memory: mem, managers: map[string]bool{"mod": true}}
}

func newHandler(p Platform) *Handler {
	return NewHandler(p, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func request(content string) Request {
	return Request{
		GuildID:   guildID,
		ChannelID: generalID,
		AuthorID:  "mod",
		BotUserID: botID,
		Content:   content,
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"<@1>", "doc", "Jan 1st", "May 30th", "<#2>"},
		Tokenize(`  <@1> doc "Jan 1st"   "May 30th" <#2> `))
	assert.Equal(t, []string{"doc", "1/1"}, Tokenize("doc\t1/1\n"))
	assert.Empty(t, Tokenize(`   ""  `))
}

func TestHandleIgnoresOtherMessages(t *testing.T) {
	h := newHandler(newPlatform())
	ctx := context.Background()

	for _, content := range []string{
		"doc 1/1",
		"<@123> doc 1/1",
		"<@" + botID + "> help",
		"<@" + botID + ">",
	} {
		_, handled := h.Handle(ctx, request(content))
		assert.False(t, handled, content)
	}

	req := request("<@" + botID + "> doc 1/1")
	req.AuthorBot = true
	_, handled := h.Handle(ctx, req)
	assert.False(t, handled)
}

func TestHandleRendersAttachment(t *testing.T) {
	p := newPlatform()
	h := newHandler(p)

	reply, handled := h.Handle(context.Background(), request(`<@!`+botID+`> DOC "Jan 1st" "Jan 31st" <#`+generalID+`>`))
	require.True(t, handled)
	require.NotNil(t, reply.Attachment)

	assert.Equal(t, "Here's the generated summary doc", reply.Text)
	assert.Equal(t, "summary_doc.md", reply.Attachment.Name)
	assert.Equal(t,
		"Important Messages : Jan 1st - Jan 31st\n"+
			strings.Repeat("=", 39)+"\n\n"+
			"##general\n* kickoff notes ([source](https://discord.com/channels/g/general/m1))\n\n",
		string(reply.Attachment.Data))
}

func TestResolveDefaults(t *testing.T) {
	h := newHandler(newPlatform())
	ctx := context.Background()

	inv, err := h.Resolve(ctx, request(""), []string{"1/1"})
	require.NoError(t, err)
	assert.True(t, inv.Start.Equal(time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, inv.End.Equal(time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC)))
	assert.Empty(t, inv.Targets)

	inv, err = h.Resolve(ctx, request(""), []string{"<#" + catID + ">", generalID})
	require.NoError(t, err)
	assert.True(t, inv.Start.Equal(digest.BeginningOfTime))
	require.Len(t, inv.Targets, 2)
	assert.Equal(t, history.KindCategory, inv.Targets[0].Kind)
	assert.Equal(t, "general", inv.Targets[1].Name)
}

func TestResolveValidationReplies(t *testing.T) {
	h := newHandler(newPlatform())
	ctx := context.Background()

	cases := map[string]struct {
		args []string
		want string
	}{
		"no args":        {nil, "Not enough arguments provided"},
		"bad start":      {[]string{"someday"}, "Incorrect date format for `start_date`"},
		"unknown":        {[]string{"1/1", "<#100000000000000099>"}, "got invalid channel/category ID"},
		"not a channel":  {[]string{"1/1", "2/1", "general"}, "got invalid channel/category ID: general"},
		"other guild":    {[]string{"1/1", "<#" + foreignID + ">"}, "got invalid channel/category ID"},
		"hidden":         {[]string{"1/1", "<#" + hiddenID + ">"}, "can't access channel/category"},
		"voice":          {[]string{"1/1", "<#" + voiceID + ">"}, "neither a text channel nor category but actually voice"},
		"date after one": {[]string{"<#" + generalID + ">", "1/1"}, "Dates must come before channels"},
	}
	for name, tc := range cases {
		_, err := h.Resolve(ctx, request(""), tc.args)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), name)
		assert.Contains(t, verr.Reply, tc.want, name)
	}
}

func TestResolveChecksGuildAndPermission(t *testing.T) {
	p := newPlatform()
	h := newHandler(p)
	ctx := context.Background()

	dm := request("")
	dm.GuildID = ""
	_, err := h.Resolve(ctx, dm, []string{"1/1"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Reply, "can only be used in a server")

	user := request("")
	user.AuthorID = "member"
	_, err = h.Resolve(ctx, user, []string{"1/1"})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Reply, "Manage Messages")

	assert.Empty(t, p.Calls(), "validation must not fetch history")
}

func TestHandleReportsTransportFailureGenerically(t *testing.T) {
	p := newPlatform()
	p.Err = errors.New("gateway timeout")
	h := newHandler(p)

	reply, handled := h.Handle(context.Background(), request("<@"+botID+"> doc 1/1 <#"+generalID+">"))
	require.True(t, handled)
	assert.Equal(t, "There was an error trying to execute that command!", reply.Text)
	assert.Nil(t, reply.Attachment)
}

func TestHandleRepliesBusyWhenSlotsAreTaken(t *testing.T) {
	p := newPlatform()
	mgr := slots.NewManager(1)
	h := NewHandler(p, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC) },
		Slots:    mgr,
	})

	release, ok := mgr.Acquire(slots.Render{ID: "other", UserID: "someone"})
	require.True(t, ok)

	reply, handled := h.Handle(context.Background(), request("<@"+botID+"> doc 1/1 <#"+generalID+">"))
	require.True(t, handled)
	assert.Contains(t, reply.Text, "busy")
	assert.Empty(t, p.Calls())

	release()
	reply, _ = h.Handle(context.Background(), request("<@"+botID+"> doc 1/1 <#"+generalID+">"))
	assert.NotNil(t, reply.Attachment)
	assert.Zero(t, mgr.Count(), "slot released after render")
}
