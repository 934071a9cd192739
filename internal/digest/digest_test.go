package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/pindoc/internal/dateparse"
	"github.com/notepid/pindoc/internal/history"
	"github.com/notepid/pindoc/internal/history/historytest"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func januaryRange() Range {
	return Range{Start: at(2021, time.January, 1, 0), End: at(2021, time.January, 31, 0), Location: time.UTC}
}

func generalChannel() history.Channel {
	return history.Channel{
		ID:       "c1",
		GuildID:  "g1",
		Name:     "general",
		Kind:     history.KindText,
		Viewable: true,
		URL:      "https://discord.com/channels/g1/c1",
	}
}

func TestRangeContainsIsDayGranular(t *testing.T) {
	r := januaryRange()

	assert.True(t, r.Contains(at(2021, time.January, 1, 0)))
	assert.True(t, r.Contains(at(2021, time.January, 31, 23)))
	assert.False(t, r.Contains(at(2020, time.December, 31, 23)))
	assert.False(t, r.Contains(at(2021, time.February, 1, 0)))

	assert.True(t, r.BeforeStart(at(2020, time.December, 31, 23)))
	assert.False(t, r.BeforeStart(at(2021, time.January, 1, 0)))
}

func TestRangeContainsUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	r := Range{
		Start:    time.Date(2021, time.January, 2, 0, 0, 0, 0, loc),
		End:      time.Date(2021, time.January, 2, 0, 0, 0, 0, loc),
		Location: loc,
	}
	// 20:00 UTC on Jan 1st is already Jan 2nd in UTC+9.
	assert.True(t, r.Contains(at(2021, time.January, 1, 20)))
	assert.False(t, r.Contains(at(2021, time.January, 1, 10)))
}

func TestChannelSectionKeepsOnlyPinnedInRange(t *testing.T) {
	mem := historytest.NewMemory()
	mem.AddMessages(
		history.Message{ID: "1", ChannelID: "c1", CreatedAt: at(2021, time.January, 5, 10), Pinned: true, CleanContent: "kickoff notes", URL: "https://discord.com/channels/g1/c1/1"},
		history.Message{ID: "2", ChannelID: "c1", CreatedAt: at(2021, time.January, 5, 11), Pinned: false, CleanContent: "chatter", URL: "https://discord.com/channels/g1/c1/2"},
		history.Message{ID: "3", ChannelID: "c1", CreatedAt: at(2021, time.February, 1, 9), Pinned: true, CleanContent: "next month", URL: "https://discord.com/channels/g1/c1/3"},
	)

	s := &ChannelSection{Fetcher: mem, Channel: generalChannel(), Range: januaryRange()}
	out, err := s.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "##general\n* kickoff notes ([source](https://discord.com/channels/g1/c1/1))\n\n", string(out))
}

func TestChannelSectionOrdersNewestFirst(t *testing.T) {
	mem := historytest.NewMemory()
	mem.AddMessages(
		history.Message{ID: "1", ChannelID: "c1", CreatedAt: at(2021, time.January, 3, 0), Pinned: true, CleanContent: "older", URL: "u1"},
		history.Message{ID: "2", ChannelID: "c1", CreatedAt: at(2021, time.January, 9, 0), Pinned: true, CleanContent: "newer", URL: "u2"},
	)

	s := &ChannelSection{Fetcher: mem, Channel: generalChannel(), Range: januaryRange()}
	out, err := s.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "##general\n* newer ([source](u2))\n* older ([source](u1))\n\n", string(out))
}

func TestChannelSectionStopsBeforeStart(t *testing.T) {
	mem := historytest.NewMemory()
	for i := 0; i < 150; i++ {
		mem.AddMessages(history.Message{
			ID:        fmt.Sprintf("old%03d", i),
			ChannelID: "c1",
			CreatedAt: at(2020, time.June, 1, 0).Add(time.Duration(i) * time.Hour),
		})
	}
	mem.AddMessages(history.Message{ID: "jan", ChannelID: "c1", CreatedAt: at(2021, time.January, 2, 0), Pinned: true, CleanContent: "in range", URL: "u"})

	s := &ChannelSection{Fetcher: mem, Channel: generalChannel(), Range: januaryRange()}
	msgs, err := s.ImportantMessages(context.Background())
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Len(t, mem.Calls(), 1, "older pages must not be fetched once history passes the start")
}

func TestTopLevelEmptyChannelShowsNotice(t *testing.T) {
	s := &ChannelSection{Fetcher: historytest.NewMemory(), Channel: generalChannel(), Range: januaryRange()}
	out, err := s.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "##general\nNothing interesting, but check the channel for [more discussions](https://discord.com/channels/g1/c1)\n\n", string(out))
}

func TestNestedEmptyChannelRendersNothing(t *testing.T) {
	s := &ChannelSection{Fetcher: historytest.NewMemory(), Channel: generalChannel(), Range: januaryRange(), Depth: Nested}
	out, err := s.Render(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func projectsCategory(children ...history.Channel) history.Channel {
	return history.Channel{
		ID:       "cat",
		GuildID:  "g1",
		Name:     "projects",
		Kind:     history.KindCategory,
		Viewable: true,
		URL:      "https://discord.com/channels/g1/cat",
		Children: children,
	}
}

func TestCategorySectionNestsChannelsWithContent(t *testing.T) {
	mem := historytest.NewMemory()
	mem.AddMessages(history.Message{ID: "1", ChannelID: "c2", CreatedAt: at(2021, time.January, 10, 0), Pinned: true, CleanContent: "design doc", URL: "u1"})

	cat := projectsCategory(
		history.Channel{ID: "c1", Name: "quiet", Kind: history.KindText},
		history.Channel{ID: "v1", Name: "voice", Kind: history.KindVoice},
		history.Channel{ID: "c2", Name: "design", Kind: history.KindAnnouncement},
	)

	s := &CategorySection{Fetcher: mem, Category: cat, Range: januaryRange()}
	out, err := s.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "##projects\n###design\n* design doc ([source](u1))\n\n", string(out))
	for _, c := range mem.Calls() {
		assert.NotEqual(t, "v1", c.ChannelID, "voice channels have no history to scan")
	}
}

func TestCategorySectionFallsBackWhenEmpty(t *testing.T) {
	want := "##projects\nNothing interesting, but check the channel for [more discussions](https://discord.com/channels/g1/cat)\n\n"

	for name, cat := range map[string]history.Channel{
		"no children":    projectsCategory(),
		"empty children": projectsCategory(history.Channel{ID: "c1", Name: "quiet", Kind: history.KindText}),
	} {
		s := &CategorySection{Fetcher: historytest.NewMemory(), Category: cat, Range: januaryRange()}
		out, err := s.Render(context.Background())
		require.NoError(t, err, name)
		assert.Equal(t, want, string(out), name)
	}
}

func TestDocumentHeader(t *testing.T) {
	now := func() time.Time { return at(2024, time.March, 1, 0) }

	cases := []struct {
		name  string
		r     Range
		title string
	}{
		{"same year", januaryRange(), "Jan 1st - Jan 31st"},
		{"cross year", Range{Start: at(2020, time.December, 1, 0), End: at(2021, time.January, 31, 0), Location: time.UTC}, "Dec 1st, 2020 - Jan 31st, 2021"},
		{"since beginning, past year", Range{Start: BeginningOfTime, End: at(2021, time.June, 15, 0), Location: time.UTC}, "Up until Jun 15th, 2021"},
		{"since beginning, this year", Range{Start: BeginningOfTime, End: at(2024, time.February, 2, 0), Location: time.UTC}, "Up until Feb 2nd"},
	}
	for _, tc := range cases {
		d := &Document{Range: tc.r, Now: now}
		title := "Important Messages : " + tc.title
		want := title + "\n" + strings.Repeat("=", len(title)) + "\n\n"
		assert.Equal(t, want, d.Header(), tc.name)
	}
}

func TestDocumentRendersSectionsInOrder(t *testing.T) {
	mem := historytest.NewMemory()
	mem.AddMessages(history.Message{ID: "1", ChannelID: "c1", CreatedAt: at(2021, time.January, 5, 0), Pinned: true, CleanContent: "hello", URL: "u1"})

	d := New(mem, januaryRange())
	d.Now = func() time.Time { return at(2021, time.March, 1, 0) }
	d.Add(generalChannel())
	d.Add(projectsCategory())

	out, err := d.Render(context.Background())
	require.NoError(t, err)

	want := "Important Messages : Jan 1st - Jan 31st\n" +
		strings.Repeat("=", 39) + "\n" +
		"\n" +
		"##general\n* hello ([source](u1))\n\n" +
		"##projects\nNothing interesting, but check the channel for [more discussions](https://discord.com/channels/g1/cat)\n\n"
	assert.Equal(t, want, string(out))
}

func TestDocumentInvertedRangeRendersFallbacks(t *testing.T) {
	mem := historytest.NewMemory()
	mem.AddMessages(history.Message{ID: "1", ChannelID: "c1", CreatedAt: at(2021, time.January, 15, 0), Pinned: true, CleanContent: "hello", URL: "u1"})

	r := Range{Start: at(2021, time.January, 31, 0), End: at(2021, time.January, 1, 0), Location: time.UTC}
	d := New(mem, r)
	d.Add(generalChannel())
	d.Add(projectsCategory(history.Channel{ID: "c1", Name: "general", Kind: history.KindText}))

	out, err := d.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(out), "##general\nNothing interesting")
	assert.Contains(t, string(out), "##projects\nNothing interesting")
	assert.NotContains(t, string(out), "hello")
}

func TestDocumentIsAtomicOnTransportError(t *testing.T) {
	mem := historytest.NewMemory()
	mem.Err = errors.New("503 service unavailable")

	d := New(mem, januaryRange())
	d.Add(generalChannel())

	out, err := d.Render(context.Background())
	require.Error(t, err)
	assert.Nil(t, out)
}

func TestAddByIDResolvesAndRejects(t *testing.T) {
	mem := historytest.NewMemory()
	mem.AddChannel(generalChannel())
	mem.AddChannel(history.Channel{ID: "v1", GuildID: "g1", Name: "lounge", Kind: history.KindVoice, Viewable: true})
	mem.AddChannel(history.Channel{ID: "h1", GuildID: "g1", Name: "mods", Kind: history.KindText})
	ctx := context.Background()

	doc := New(mem, januaryRange())
	require.NoError(t, doc.AddByID(ctx, mem, "c1"))
	assert.Len(t, doc.Sections, 1)

	for _, id := range []string{"v1", "h1", "missing"} {
		doc := New(mem, januaryRange())
		assert.Error(t, doc.AddByID(ctx, mem, "c1", id), id)
		assert.Empty(t, doc.Sections, id)
	}

	err := New(mem, januaryRange()).AddByID(ctx, mem, "missing")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestParseRange(t *testing.T) {
	now := at(2021, time.March, 3, 15)
	p := &dateparse.Parser{Now: func() time.Time { return now }, Location: time.UTC}

	r, err := ParseRange(p, "", "", now)
	require.NoError(t, err)
	assert.True(t, r.SinceBeginning())
	assert.True(t, r.End.Equal(now))

	r, err = ParseRange(p, "Jan/1/2021", "2/1", now)
	require.NoError(t, err)
	assert.True(t, r.Start.Equal(at(2021, time.January, 1, 0)))
	assert.True(t, r.End.Equal(at(2021, time.February, 1, 0)))

	_, err = ParseRange(p, "yesterday", "", now)
	assert.ErrorIs(t, err, dateparse.ErrUnrecognized)
	_, err = ParseRange(p, "1/1", "Feb 30", now)
	assert.Error(t, err)
}
