package discord

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	domsvc "FinBot/internal/domain/service"
	"FinBot/internal/usecase"
	pkghttp "FinBot/pkg/http"
)

// Operations is the usecase surface the commands call into.
type Operations interface {
	Info(ctx context.Context, ticker string) (*models.Result, error)
	Calendar(ctx context.Context, ticker string) (*models.Result, error)
	Experts(ctx context.Context, ticker string, frame drepo.Frame) (*models.Result, error)
	Sustainability(ctx context.Context, ticker string) (*models.Result, error)
	History(ctx context.Context, ticker, period string) (*models.Result, error)
	News(ctx context.Context, ticker string) (*models.Result, error)
	Actions(ctx context.Context, ticker string) (*models.Result, error)
	Dividends(ctx context.Context, ticker string) (*models.Result, error)
	Splits(ctx context.Context, ticker string) (*models.Result, error)
	Income(ctx context.Context, ticker string) (*models.Result, error)
	Cashflow(ctx context.Context, ticker string) (*models.Result, error)
	Shares(ctx context.Context, ticker string) (*models.Result, error)
	Forecast(ctx context.Context, model, ticker string, col models.Column, frame drepo.Frame) (*models.Result, error)
	MonteCarlo(ctx context.Context, ticker string, col models.Column, frame drepo.Frame) (*models.Result, error)
	Top(ctx context.Context, col models.Column, frame drepo.Frame, num int) (*models.Result, error)
}

var _ Operations = (*usecase.Commands)(nil)

const (
	ackData    = "Compiling the data... Check your DMs..."
	ackCompute = "Crunching the numbers... Check your DMs in a minute..."
)

// Argument structs are filled positionally in field order, then defaulted and
// validated.
type tickerArgs struct {
	Ticker string `default:"AAPL" validate:"required,max=12,printascii"`
}

type expertsArgs struct {
	Ticker    string `default:"AAPL" validate:"required,max=12,printascii"`
	Timeframe string `default:"week" validate:"oneof=day week month year"`
}

type historyArgs struct {
	Ticker string `default:"AAPL" validate:"required,max=12,printascii"`
	Period string `default:"max" validate:"oneof=max day week month year"`
}

type modelArgs struct {
	Ticker    string `default:"AAPL" validate:"required,max=12,printascii"`
	Col       string `default:"Close" validate:"oneof=Open High Low Close"`
	Timeframe string `default:"week" validate:"oneof=day week month year"`
}

type topArgs struct {
	Col       string `default:"Close" validate:"oneof=Open High Low Close"`
	Timeframe string `default:"week" validate:"oneof=day week month year"`
	Num       int    `default:"10" validate:"min=1,max=50"`
}

type command struct {
	name  string
	help  string
	usage string
	ack   string
	bind  func(ctx context.Context, args []string) (interface{}, error)
	run   func(ctx context.Context, ops Operations, args interface{}) (*models.Result, error)
}

func define[A any](name, usage, ack, help string, run func(context.Context, Operations, *A) (*models.Result, error)) *command {
	return &command{
		name:  name,
		help:  help,
		usage: usage,
		ack:   ack,
		bind: func(ctx context.Context, args []string) (interface{}, error) {
			a := new(A)
			if err := bindArgs(ctx, a, args); err != nil {
				return nil, err
			}
			return a, nil
		},
		run: func(ctx context.Context, ops Operations, args interface{}) (*models.Result, error) {
			return run(ctx, ops, args.(*A))
		},
	}
}

func forecastCommand(model, title string) *command {
	return define(model, "[ticker=AAPL] [col=Close] [timeframe=week]", ackCompute,
		fmt.Sprintf("Predicts the movement of a stock over a given timeframe (day, week, month, year) using %s algorithm", title),
		func(ctx context.Context, ops Operations, a *modelArgs) (*models.Result, error) {
			return ops.Forecast(ctx, model, a.Ticker, models.Column(a.Col), drepo.Frame(a.Timeframe))
		})
}

func tickerCommand(name, ack, help string, run func(Operations, context.Context, string) (*models.Result, error)) *command {
	return define(name, "[ticker=AAPL]", ack, help, func(ctx context.Context, ops Operations, a *tickerArgs) (*models.Result, error) {
		return run(ops, ctx, a.Ticker)
	})
}

func builtinCommands() []*command {
	return []*command{
		tickerCommand("info", ackData, "Returns the info of a stock given ticker", Operations.Info),
		tickerCommand("calendar", ackData, "Returns the upcoming events of a stock given ticker", Operations.Calendar),
		define("experts", "[ticker=AAPL] [timeframe=week]", ackData, "Returns the expert recommendations of a stock given ticker",
			func(ctx context.Context, ops Operations, a *expertsArgs) (*models.Result, error) {
				return ops.Experts(ctx, a.Ticker, drepo.Frame(a.Timeframe))
			}),
		tickerCommand("sustainability", ackData, "Returns the sustainability of a stock given ticker", Operations.Sustainability),
		define("history", "[ticker=AAPL] [period=max]", ackData, "Returns the history of a stock given ticker",
			func(ctx context.Context, ops Operations, a *historyArgs) (*models.Result, error) {
				return ops.History(ctx, a.Ticker, a.Period)
			}),
		tickerCommand("news", ackData, "Returns the news of a stock given ticker", Operations.News),
		tickerCommand("actions", ackData, "Returns the actions of a stock given ticker", Operations.Actions),
		tickerCommand("dividends", ackData, "Returns the dividends of a stock given ticker", Operations.Dividends),
		tickerCommand("splits", ackData, "Returns the splits of a stock given ticker", Operations.Splits),
		forecastCommand("arima", "ARIMA"),
		forecastCommand("ets", "ETS"),
		forecastCommand("ces", "CES"),
		forecastCommand("theta", "THETA"),
		define("top", "[col=Close] [timeframe=week] [num=10]", ackCompute, "Show the top stocks within the given timeframe (day, week, month, year)",
			func(ctx context.Context, ops Operations, a *topArgs) (*models.Result, error) {
				return ops.Top(ctx, models.Column(a.Col), drepo.Frame(a.Timeframe), a.Num)
			}),
		tickerCommand("income", ackCompute, "Shows the income statement of a company", Operations.Income),
		tickerCommand("cashflow", ackCompute, "Shows the cashflow statement of a company", Operations.Cashflow),
		tickerCommand("shares", ackCompute, "Shows the number of shares outstanding of a company", Operations.Shares),
		define("monte_carlo", "[ticker=AAPL] [col=Close] [timeframe=week]", ackCompute,
			"Predicts the possible movement of a stock over a given timeframe (day, week, month, year) using Monte Carlo algorithm",
			func(ctx context.Context, ops Operations, a *modelArgs) (*models.Result, error) {
				return ops.MonteCarlo(ctx, a.Ticker, models.Column(a.Col), drepo.Frame(a.Timeframe))
			}),
	}
}

// Router binds raw command arguments and runs the matching operation.
type Router struct {
	ops      Operations
	commands map[string]*command
	order    []string
}

func NewRouter(ops Operations) *Router {
	r := &Router{ops: ops, commands: make(map[string]*command)}
	for _, c := range builtinCommands() {
		r.commands[c.name] = c
		r.order = append(r.order, c.name)
	}
	return r
}

// Ack returns the acknowledgement text for a known command.
func (r *Router) Ack(name string) (string, bool) {
	c, ok := r.commands[name]
	if !ok {
		return "", false
	}
	return c.ack, true
}

// Validate binds args without running the command.
func (r *Router) Validate(ctx context.Context, name string, args []string) error {
	c, ok := r.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", usecase.ErrUnknownCommand, name)
	}
	_, err := c.bind(ctx, args)
	return err
}

func (r *Router) Run(ctx context.Context, cmd models.Command) (*models.Result, error) {
	c, ok := r.commands[cmd.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", usecase.ErrUnknownCommand, cmd.Name)
	}
	args, err := c.bind(ctx, cmd.Args)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, r.ops, args)
}

// Help lists every command with its usage, sorted by name.
func (r *Router) Help(prefix string) string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("```\n")
	for _, name := range names {
		c := r.commands[name]
		fmt.Fprintf(&sb, "%s%s %s\n    %s\n", prefix, c.name, c.usage, c.help)
	}
	fmt.Fprintf(&sb, "%shelp\n    Shows this message\n```", prefix)
	return sb.String()
}

var _ domsvc.CommandRunner = (*Router)(nil)

// bindArgs assigns args to the exported fields of dst in order, normalises
// tickers and columns, then applies defaults and validation.
func bindArgs(ctx context.Context, dst interface{}, args []string) error {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	if len(args) > t.NumField() {
		return fmt.Errorf("%w: expected at most %d arguments, got %d", usecase.ErrInvalidArgs, t.NumField(), len(args))
	}
	for i, raw := range args {
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			f.SetString(normalize(t.Field(i).Name, raw))
		case reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%w: %s must be a number", usecase.ErrInvalidArgs, strings.ToLower(t.Field(i).Name))
			}
			f.SetInt(int64(n))
		}
	}
	if err := pkghttp.DefaultAndValidate(ctx, dst); err != nil {
		msgs := make([]string, 0, 1)
		for _, ve := range pkghttp.ValidationErrors(err) {
			msgs = append(msgs, ve.Message)
		}
		return fmt.Errorf("%w: %s", usecase.ErrInvalidArgs, strings.Join(msgs, "; "))
	}
	return nil
}

func normalize(field, raw string) string {
	switch field {
	case "Ticker":
		return strings.ToUpper(raw)
	case "Col":
		if raw == "" {
			return raw
		}
		return strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
	default:
		return strings.ToLower(raw)
	}
}
