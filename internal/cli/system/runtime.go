package system

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/escalation"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/reminders"
	"github.com/julianstephens/soberlit/internal/server"
)

// BootCmd re-registers reminders after an OS restart.
type BootCmd struct{}

func (c *BootCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	report, err := a.Boot(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	PrintReport(report)
	return nil
}

// PrintReport summarizes a scheduling pass.
func PrintReport(report reminders.Report) {
	if len(report.Alarms) == 0 {
		fmt.Println("No reminders scheduled.")
		return
	}
	fmt.Printf("✓ %d reminder(s) scheduled\n", len(report.Alarms))
	if report.NeedsPermissionPrompt {
		fmt.Println("⚠ Exact alarms are not allowed, reminders may arrive a few minutes late.")
		fmt.Println("  Run 'soberlit settings --exact-alarms=true' to allow them.")
	} else if report.Degraded {
		fmt.Println("  (inexact delivery)")
	}
}

// DaemonCmd delivers due alarms and serves the local API until interrupted.
type DaemonCmd struct {
	Addr     string `help:"Listen address for the local HTTP API." default:"${server_address}"`
	NoServer bool   `help:"Run the alarm dispatcher without the HTTP API."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx.Ctx(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := ctx.App()
	if err != nil {
		return err
	}
	report, err := a.Boot(sigCtx)
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	logger.Info("Daemon started", "alarms", len(report.Alarms), "degraded", report.Degraded)

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return a.Dispatcher.Run(gctx)
	})
	if !c.NoServer {
		srv := server.New(a, constants.Version)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, c.Addr)
		})
	}

	err = g.Wait()
	a.Escalation.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Daemon stopped")
	return nil
}

// ServeCmd runs only the local HTTP API.
type ServeCmd struct {
	Addr string `help:"Listen address for the local HTTP API." default:"${server_address}"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx.Ctx(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := ctx.App()
	if err != nil {
		return err
	}
	fmt.Printf("Serving the soberlit API on http://%s/api\n", c.Addr)
	return server.New(a, constants.Version).ListenAndServe(sigCtx, c.Addr)
}

// CheckinCmd runs the intrusive check-in now, in the foreground.
type CheckinCmd struct{}

func (c *CheckinCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	res, err := a.Escalation.Escalate(ctx.Ctx())
	switch res {
	case escalation.ResolutionSober:
		fmt.Println("✓ Another sober day confirmed.")
	case escalation.ResolutionRelapse:
		fmt.Println("Counter reset. Tomorrow is day one again - you can do this.")
	case escalation.ResolutionSuppressed:
		fmt.Println("Already checked in today.")
	case escalation.ResolutionTimeout:
		fmt.Println("Check-in timed out without an answer.")
	case escalation.ResolutionNotified:
		fmt.Println("No terminal available, a notification was sent instead.")
	}
	return err
}
