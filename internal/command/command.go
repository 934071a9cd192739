// Package command implements the chat command that replies with a digest of
// pinned messages. It is platform-neutral: adapters translate incoming chat
// messages into Requests and deliver the returned Reply.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/dateparse"
	"github.com/notepid/pindoc/internal/digest"
	"github.com/notepid/pindoc/internal/history"
	"github.com/notepid/pindoc/internal/slots"
)

const (
	genericFailure = "There was an error trying to execute that command!"
	busyReply      = "I'm busy putting together other summaries. Please try again in a moment."
)

// Platform is what the command needs from the chat client.
type Platform interface {
	history.Source
	CanManageMessages(ctx context.Context, guildID, channelID, userID string) (bool, error)
}

// Request is an incoming chat message.
type Request struct {
	GuildID   string // empty for direct messages
	ChannelID string
	AuthorID  string
	AuthorBot bool
	BotUserID string // the user ID the bot is logged in as
	Content   string
}

// Attachment is a file sent with a reply.
type Attachment struct {
	Name string
	Data []byte
}

// Reply is the bot's answer to a Request.
type Reply struct {
	Text       string
	Attachment *Attachment
}

// ValidationError is a problem with the user's input. Reply is shown to the
// user as is.
type ValidationError struct {
	Reply string
}

func (e *ValidationError) Error() string { return e.Reply }

func invalid(format string, args ...any) error {
	return &ValidationError{Reply: fmt.Sprintf(format, args...)}
}

// Invocation is a validated command, ready to render.
type Invocation struct {
	Start   time.Time
	End     time.Time
	Targets []history.Channel
}

// Options configures a Handler.
type Options struct {
	Name           string // command word, "doc" by default
	AttachmentName string
	ReplyText      string
	PageSize       int
	Location       *time.Location
	Logger         *zap.Logger
	Now            func() time.Time
	Slots          *slots.Manager // four concurrent renders when nil
}

// Handler answers digest commands.
type Handler struct {
	platform Platform
	parser   *dateparse.Parser
	opts     Options
	log      *zap.Logger
}

// NewHandler creates a handler reading history through p.
func NewHandler(p Platform, opts Options) *Handler {
	if opts.Name == "" {
		opts.Name = "doc"
	}
	if opts.AttachmentName == "" {
		opts.AttachmentName = "summary_doc.md"
	}
	if opts.ReplyText == "" {
		opts.ReplyText = "Here's the generated summary doc"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Slots == nil {
		opts.Slots = slots.NewManager(4)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		platform: p,
		parser:   &dateparse.Parser{Now: opts.Now, Location: opts.Location},
		opts:     opts,
		log:      log,
	}
}

// Usage is the reply for a bare command.
func (h *Handler) Usage() string {
	return "Not enough arguments provided ... \n" +
		"The correct format would be: " + h.opts.Name + " <start_date> [<end_date>] [... <channel/category>]"
}

// Handle answers req. It returns false when the message is not addressed
// to this command.
func (h *Handler) Handle(ctx context.Context, req Request) (*Reply, bool) {
	if req.AuthorBot {
		return nil, false
	}
	tokens := Tokenize(req.Content)
	if len(tokens) < 2 {
		return nil, false
	}
	if id, ok := mentionedUser(tokens[0]); !ok || id != req.BotUserID {
		return nil, false
	}
	if !strings.EqualFold(tokens[1], h.opts.Name) {
		return nil, false
	}

	renderID := uuid.NewString()
	log := h.log.With(
		zap.String("render_id", renderID),
		zap.String("guild", req.GuildID),
		zap.String("author", req.AuthorID),
	)

	inv, err := h.Resolve(ctx, req, tokens[2:])
	var verr *ValidationError
	if errors.As(err, &verr) {
		log.Info("rejected command", zap.String("reason", verr.Reply))
		return &Reply{Text: verr.Reply}, true
	}
	if err != nil {
		log.Error("resolve command", zap.Error(err))
		return &Reply{Text: genericFailure}, true
	}

	release, ok := h.opts.Slots.Acquire(slots.Render{ID: renderID, GuildID: req.GuildID, UserID: req.AuthorID})
	if !ok {
		log.Info("render slots busy", zap.Int("active", h.opts.Slots.Count()))
		return &Reply{Text: busyReply}, true
	}
	defer release()

	data, err := h.Render(ctx, inv, log)
	if err != nil {
		log.Error("render document", zap.Error(err))
		return &Reply{Text: genericFailure}, true
	}

	return &Reply{
		Text:       h.opts.ReplyText,
		Attachment: &Attachment{Name: h.opts.AttachmentName, Data: data},
	}, true
}

// Resolve validates the arguments of a command. Every check runs before any
// history is fetched; failures are *ValidationError.
func (h *Handler) Resolve(ctx context.Context, req Request, args []string) (*Invocation, error) {
	if req.GuildID == "" {
		return nil, invalid("The `%s` command can only be used in a server.", h.opts.Name)
	}
	ok, err := h.platform.CanManageMessages(ctx, req.GuildID, req.ChannelID, req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("check permissions: %w", err)
	}
	if !ok {
		return nil, invalid("You need the Manage Messages permission to use the `%s` command.", h.opts.Name)
	}
	if len(args) == 0 {
		return nil, invalid("%s", h.Usage())
	}

	inv := &Invocation{
		Start: digest.BeginningOfTime,
		End:   h.opts.Now().In(h.opts.Location),
	}

	rest := args
	if start, err := h.parser.Parse(args[0]); err == nil {
		inv.Start = start
		rest = args[1:]
		if len(rest) > 0 {
			if end, err := h.parser.Parse(rest[0]); err == nil {
				inv.End = end
				rest = rest[1:]
			}
		}
	} else if _, isChannel := channelRef(args[0]); !isChannel {
		return nil, invalid("Incorrect date format for `start_date`. Try using MMM/D/YYYY, i.e. 'Jan/18/2021'")
	}

	for _, arg := range rest {
		ch, err := h.resolveTarget(ctx, req.GuildID, arg)
		if err != nil {
			return nil, err
		}
		inv.Targets = append(inv.Targets, *ch)
	}
	return inv, nil
}

func (h *Handler) resolveTarget(ctx context.Context, guildID, arg string) (*history.Channel, error) {
	if h.parser.Valid(arg) {
		return nil, invalid("Dates must come before channels, got %s after a channel.", arg)
	}
	id, ok := channelRef(arg)
	if !ok {
		return nil, invalid("got invalid channel/category ID: %s `(raw: %s)`", arg, arg)
	}

	ch, err := h.platform.Channel(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return nil, invalid("got invalid channel/category ID: %s `(raw: %s)`", arg, id)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", id, err)
	}
	if ch.GuildID != guildID {
		return nil, invalid("got invalid channel/category ID: %s `(raw: %s)`", arg, id)
	}
	if !ch.Viewable {
		return nil, invalid("can't access channel/category: %s. Please update permissions accordingly", arg)
	}
	if ch.Kind != history.KindCategory && !ch.Kind.IsText() {
		return nil, invalid("got channel that is neither a text channel nor category but actually %s: %s `(raw: %s)`.", ch.Kind, arg, id)
	}
	return ch, nil
}

// Render builds the document for a validated invocation.
func (h *Handler) Render(ctx context.Context, inv *Invocation, log *zap.Logger) ([]byte, error) {
	if log == nil {
		log = h.log
	}
	doc := digest.New(h.platform, digest.Range{
		Start:    inv.Start,
		End:      inv.End,
		Location: h.opts.Location,
	})
	doc.PageSize = h.opts.PageSize
	doc.Logger = log
	doc.Now = h.opts.Now
	for _, t := range inv.Targets {
		doc.Add(t)
	}
	return doc.Render(ctx)
}
