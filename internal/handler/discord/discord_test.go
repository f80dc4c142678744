package discord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/usecase"
)

type sent struct {
	to      string
	content string
	files   []models.Attachment
}

type fakeMessenger struct {
	channel []sent
	direct  []sent
}

func (m *fakeMessenger) ChannelMessage(_ context.Context, channelID, content string) error {
	m.channel = append(m.channel, sent{to: channelID, content: content})
	return nil
}

func (m *fakeMessenger) DirectMessage(_ context.Context, userID, content string, files []models.Attachment) error {
	m.direct = append(m.direct, sent{to: userID, content: content, files: files})
	return nil
}

// fakeOps records the last call as "name args...".
type fakeOps struct{ last string }

func (f *fakeOps) rec(parts ...string) (*models.Result, error) {
	f.last = strings.Join(parts, " ")
	return &models.Result{Text: f.last}, nil
}

func (f *fakeOps) Info(_ context.Context, t string) (*models.Result, error) { return f.rec("info", t) }
func (f *fakeOps) Calendar(_ context.Context, t string) (*models.Result, error) {
	return f.rec("calendar", t)
}
func (f *fakeOps) Experts(_ context.Context, t string, fr drepo.Frame) (*models.Result, error) {
	return f.rec("experts", t, string(fr))
}
func (f *fakeOps) Sustainability(_ context.Context, t string) (*models.Result, error) {
	return f.rec("sustainability", t)
}
func (f *fakeOps) History(_ context.Context, t, p string) (*models.Result, error) {
	return f.rec("history", t, p)
}
func (f *fakeOps) News(_ context.Context, t string) (*models.Result, error) { return f.rec("news", t) }
func (f *fakeOps) Actions(_ context.Context, t string) (*models.Result, error) {
	return f.rec("actions", t)
}
func (f *fakeOps) Dividends(_ context.Context, t string) (*models.Result, error) {
	return f.rec("dividends", t)
}
func (f *fakeOps) Splits(_ context.Context, t string) (*models.Result, error) {
	return f.rec("splits", t)
}
func (f *fakeOps) Income(_ context.Context, t string) (*models.Result, error) {
	return f.rec("income", t)
}
func (f *fakeOps) Cashflow(_ context.Context, t string) (*models.Result, error) {
	return f.rec("cashflow", t)
}
func (f *fakeOps) Shares(_ context.Context, t string) (*models.Result, error) {
	return f.rec("shares", t)
}
func (f *fakeOps) Forecast(_ context.Context, m, t string, c models.Column, fr drepo.Frame) (*models.Result, error) {
	return f.rec(m, t, string(c), string(fr))
}
func (f *fakeOps) MonteCarlo(_ context.Context, t string, c models.Column, fr drepo.Frame) (*models.Result, error) {
	return f.rec("monte_carlo", t, string(c), string(fr))
}
func (f *fakeOps) Top(_ context.Context, c models.Column, fr drepo.Frame, n int) (*models.Result, error) {
	return f.rec("top", string(c), string(fr), strings.Repeat("i", n))
}

func TestRouterBindsDefaultsAndNormalises(t *testing.T) {
	ops := &fakeOps{}
	r := NewRouter(ops)

	cases := map[string]struct {
		name string
		args []string
		want string
	}{
		"ticker default":      {"info", nil, "info AAPL"},
		"ticker upper-cased":  {"news", []string{"msft"}, "news MSFT"},
		"history max":         {"history", []string{"tsla"}, "history TSLA max"},
		"history period":      {"history", []string{"tsla", "Month"}, "history TSLA month"},
		"forecast defaults":   {"arima", []string{"aapl"}, "arima AAPL Close week"},
		"forecast col case":   {"ces", []string{"aapl", "open", "year"}, "ces AAPL Open year"},
		"monte carlo":         {"monte_carlo", []string{"nvda", "High", "day"}, "monte_carlo NVDA High day"},
		"experts frame":       {"experts", []string{"ibm", "month"}, "experts IBM month"},
		"top defaults":        {"top", nil, "top Close week iiiiiiiiii"},
		"top explicit number": {"top", []string{"low", "day", "3"}, "top Low day iii"},
	}
	for name, tc := range cases {
		_, err := r.Run(context.Background(), models.Command{Name: tc.name, Args: tc.args})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if ops.last != tc.want {
			t.Fatalf("%s: got %q, want %q", name, ops.last, tc.want)
		}
	}
}

func TestRouterRejectsBadArguments(t *testing.T) {
	r := NewRouter(&fakeOps{})
	cases := map[string]struct {
		name string
		args []string
		msg  string
	}{
		"bad frame":      {"experts", []string{"AAPL", "decade"}, "timeframe must be one of"},
		"bad column":     {"arima", []string{"AAPL", "Volume"}, "col must be one of"},
		"num too big":    {"top", []string{"Close", "week", "51"}, "num must be at most 50"},
		"num not number": {"top", []string{"Close", "week", "ten"}, "num must be a number"},
		"too many args":  {"info", []string{"AAPL", "MSFT"}, "at most 1 arguments"},
	}
	for name, tc := range cases {
		err := r.Validate(context.Background(), tc.name, tc.args)
		if !errors.Is(err, usecase.ErrInvalidArgs) || !strings.Contains(err.Error(), tc.msg) {
			t.Fatalf("%s: got %v", name, err)
		}
	}
	if _, err := r.Run(context.Background(), models.Command{Name: "pie"}); !errors.Is(err, usecase.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestHelpListsCommands(t *testing.T) {
	help := NewRouter(&fakeOps{}).Help("?")
	for _, name := range []string{"?info", "?monte_carlo", "?top [col=Close] [timeframe=week] [num=10]", "?help"} {
		if !strings.Contains(help, name) {
			t.Fatalf("help missing %s:\n%s", name, help)
		}
	}
}

func TestComposeReplyRule(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	chart := &models.Attachment{Name: "plot.png", Data: []byte("png")}

	content, files := compose(&models.Result{Text: "| a |\n", TextName: "AAPL_history.txt", Chart: chart}, now)
	if content != "```| a |```" || len(files) != 1 || files[0].Name != "plot.png" {
		t.Fatalf("short reply = %q %+v", content, files)
	}

	long := strings.Repeat("x", maxInline+1)
	content, files = compose(&models.Result{Text: long, TextName: "AAPL_history.txt", Chart: chart}, now)
	if content != "[FSD 2024-03-10 12:00:00.000000] Here's your data: " {
		t.Fatalf("long content = %q", content)
	}
	if len(files) != 2 || files[1].Name != "AAPL_history.txt" || string(files[1].Data) != long {
		t.Fatalf("long files = %+v", files)
	}

	content, files = compose(&models.Result{
		Text:       "short",
		TextName:   "AAPL_info.txt",
		AlwaysFile: true,
		Note:       "\n *Sentiment for AAPL is: 0.12*",
		Extra:      []models.Attachment{{Name: "AAPL_info.json"}},
	}, now)
	if !strings.HasSuffix(content, "*Sentiment for AAPL is: 0.12*") || len(files) != 2 {
		t.Fatalf("info reply = %q %+v", content, files)
	}
}

type recordingDispatcher struct {
	cmds []models.Command
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, cmd models.Command) error {
	d.cmds = append(d.cmds, cmd)
	return d.err
}

func TestHandler(t *testing.T) {
	m := &fakeMessenger{}
	d := &recordingDispatcher{}
	h := NewHandler(NewRouter(&fakeOps{}), m, d, nil, "?")
	ctx := context.Background()

	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "hello there"})
	h.Handle(ctx, Message{AuthorID: "b1", Bot: true, ChannelID: "c1", Content: "?info"})
	if len(m.channel) != 0 || len(d.cmds) != 0 {
		t.Fatalf("plain and bot messages must be ignored")
	}

	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "?ARIMA msft"})
	if len(d.cmds) != 1 || d.cmds[0].Name != "arima" || d.cmds[0].Args[0] != "msft" || d.cmds[0].ID == "" {
		t.Fatalf("dispatched = %+v", d.cmds)
	}
	if m.channel[0].content != ackCompute {
		t.Fatalf("ack = %q", m.channel[0].content)
	}

	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "?history AAPL"})
	if m.channel[1].content != ackData {
		t.Fatalf("ack = %q", m.channel[1].content)
	}

	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "?pie"})
	if !strings.Contains(m.channel[2].content, "?help") {
		t.Fatalf("unknown reply = %q", m.channel[2].content)
	}

	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "?top Close fortnight"})
	if !strings.Contains(m.channel[3].content, "timeframe") || len(d.cmds) != 2 {
		t.Fatalf("invalid args should be answered without dispatch: %q", m.channel[3].content)
	}

	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "?help"})
	if !strings.HasPrefix(m.channel[4].content, "```") {
		t.Fatalf("help = %q", m.channel[4].content)
	}

	d.err = usecase.ErrRateLimited
	h.Handle(ctx, Message{AuthorID: "u1", ChannelID: "c1", Content: "?news"})
	if last := m.channel[len(m.channel)-1].content; !strings.Contains(last, "Slow down") {
		t.Fatalf("dispatch error reply = %q", last)
	}
}

func TestHandlerRejectedCommandIsNotAcknowledged(t *testing.T) {
	cases := map[string]error{
		"rate limited": usecase.ErrRateLimited,
		"queue full":   errors.New("command buffer full"),
	}
	for name, dispatchErr := range cases {
		m := &fakeMessenger{}
		h := NewHandler(NewRouter(&fakeOps{}), m, &recordingDispatcher{err: dispatchErr}, nil, "?")

		h.Handle(context.Background(), Message{AuthorID: "u1", ChannelID: "c1", Content: "?history AAPL"})
		if len(m.channel) != 1 {
			t.Fatalf("%s: channel = %+v", name, m.channel)
		}
		if got := m.channel[0].content; got == ackData || got == ackCompute {
			t.Fatalf("%s: rejected command was acknowledged", name)
		}
	}
}

func TestChannelSink(t *testing.T) {
	m := &fakeMessenger{}
	sink := NewChannelSink(m, "movers")

	if err := sink.Deliver(context.Background(), models.MoverAlert{Symbol: "AAPL", Delta: 5.5}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if m.channel[0].to != "movers" || !strings.HasPrefix(m.channel[0].content, "AAPL is on the move!") {
		t.Fatalf("sent = %+v", m.channel[0])
	}
	if err := NewChannelSink(m, "").Deliver(context.Background(), models.MoverAlert{Symbol: "X"}); err == nil {
		t.Fatalf("expected error without channel")
	}
}

func TestReplierSendsDirectMessages(t *testing.T) {
	m := &fakeMessenger{}
	r := NewReplier(m)
	cmd := models.Command{UserID: "u1"}

	if err := r.Reply(context.Background(), cmd, &models.Result{Text: "t"}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := r.ReplyError(context.Background(), cmd, "nope"); err != nil {
		t.Fatalf("reply error: %v", err)
	}
	if len(m.direct) != 2 || m.direct[0].to != "u1" || m.direct[1].content != "nope" {
		t.Fatalf("direct = %+v", m.direct)
	}
}
