package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/KNICEX/stock-alert/internal/schedule"
	"github.com/KNICEX/stock-alert/internal/service/alert"
	"github.com/KNICEX/stock-alert/internal/service/monitor"
	"github.com/KNICEX/stock-alert/pkg/decimalx"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const usage = `usage: stock-alert [--config file] <command> [flags]

commands:
  serve                       run the price monitor until interrupted (default)
  tick                        run one monitor pass and print its report
  create  --symbol --price --direction --by [--notes]
  update  <id> --symbol --price --direction [--notes]
  delete  <id>
  get     <id>
  list    [--active]
  deactivate <id>
  reactivate <id>`

var errUsage = errors.New("invalid usage")

type cli struct {
	alerts *alert.Service
	task   *monitor.AlertMonitorTask
	runner *schedule.Runner
	out    io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"serve"}
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "serve":
		return c.runner.Start(ctx)
	case "tick":
		report, err := c.task.Tick(ctx)
		if err != nil {
			return err
		}
		return c.print(report)
	case "create":
		return c.create(ctx, args)
	case "update":
		return c.update(ctx, args)
	case "delete":
		id, err := oneID(cmd, args)
		if err != nil {
			return err
		}
		if err := c.alerts.DeleteAlert(ctx, id); err != nil {
			return err
		}
		return c.print(map[string]string{"deleted": id})
	case "get":
		id, err := oneID(cmd, args)
		if err != nil {
			return err
		}
		return c.printView(c.alerts.GetAlert(ctx, id))
	case "list":
		fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		activeOnly := fs.Bool("active", false, "only list active alerts")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		views, err := c.alerts.ListAlerts(ctx, *activeOnly)
		if err != nil {
			return err
		}
		return c.print(views)
	case "deactivate":
		id, err := oneID(cmd, args)
		if err != nil {
			return err
		}
		return c.printView(c.alerts.DeactivateAlert(ctx, id))
	case "reactivate":
		id, err := oneID(cmd, args)
		if err != nil {
			return err
		}
		return c.printView(c.alerts.ReactivateAlert(ctx, id))
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", errUsage, cmd, usage)
	}
}

type alertFlags struct {
	fs        *pflag.FlagSet
	symbol    *string
	price     *string
	direction *string
	notes     *string
}

func newAlertFlags(cmd string) alertFlags {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	return alertFlags{
		fs:        fs,
		symbol:    fs.String("symbol", "", "ticker symbol, e.g. AAPL"),
		price:     fs.String("price", "", "target price"),
		direction: fs.String("direction", "", "Above or Below"),
		notes:     fs.String("notes", "", "free-form notes"),
	}
}

func (f alertFlags) parse(args []string) (string, error) {
	if err := f.fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return *f.price, nil
}

func (c *cli) create(ctx context.Context, args []string) error {
	flags := newAlertFlags("create")
	createdBy := flags.fs.String("by", "", "user creating the alert")
	raw, err := flags.parse(args)
	if err != nil {
		return err
	}
	return c.printView(c.alerts.CreateAlert(ctx, alert.CreateParams{
		Symbol:      *flags.symbol,
		TargetPrice: parsePrice(raw),
		Direction:   domain.Direction(*flags.direction),
		CreatedBy:   *createdBy,
		Notes:       *flags.notes,
	}))
}

func (c *cli) update(ctx context.Context, args []string) error {
	flags := newAlertFlags("update")
	raw, err := flags.parse(args)
	if err != nil {
		return err
	}
	id, err := oneID("update", flags.fs.Args())
	if err != nil {
		return err
	}
	return c.printView(c.alerts.UpdateAlert(ctx, id, alert.UpdateParams{
		Symbol:      *flags.symbol,
		TargetPrice: parsePrice(raw),
		Direction:   domain.Direction(*flags.direction),
		Notes:       *flags.notes,
	}))
}

// parsePrice leaves malformed input as zero so the positive-price rule
// reports it alongside any other violation.
func parsePrice(raw string) decimal.Decimal {
	price, err := decimalx.Parse(raw)
	if err != nil {
		return decimal.Zero
	}
	return price
}

func oneID(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s takes exactly one alert id", errUsage, cmd)
	}
	return args[0], nil
}

func (c *cli) printView(view alert.AlertView, err error) error {
	if err != nil {
		return err
	}
	return c.print(view)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage):
		return 64
	case errors.Is(err, domain.ErrValidation):
		return 65
	case errors.Is(err, domain.ErrNotFound):
		return 66
	case errors.Is(err, domain.ErrDomainRule), errors.Is(err, domain.ErrConflict):
		return 75
	default:
		return 1
	}
}
