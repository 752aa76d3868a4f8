package reminders

import (
	"fmt"

	"github.com/julianstephens/soberlit/internal/alarm"
	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/cli/system"
)

type RemindersCmd struct {
	Schedule ScheduleCmd `cmd:"" help:"Register every enabled reminder."`
	Cancel   CancelCmd   `cmd:"" help:"Cancel scheduled reminders."`
	List     ListCmd     `cmd:"" help:"List scheduled reminders." default:"1"`
}

type ScheduleCmd struct{}

func (c *ScheduleCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	report, err := a.ScheduleAll(ctx.Ctx())
	if err != nil {
		return err
	}
	system.PrintReport(report)
	return nil
}

type CancelCmd struct {
	KeepCheckin bool `help:"Keep the intrusive check-in armed."`
}

func (c *CancelCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.CancelReminders(ctx.Ctx(), c.KeepCheckin); err != nil {
		return err
	}
	fmt.Println("✓ Reminders cancelled")
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	alarms, err := a.Registry.List(ctx.Ctx())
	if err != nil {
		return err
	}
	if len(alarms) == 0 {
		fmt.Println("No reminders scheduled. Run 'soberlit reminders schedule'.")
		return nil
	}

	fmt.Printf("%-6s %-18s %-17s %-8s %s\n", "ID", "KIND", "NEXT", "EXACT", "LABEL")
	for _, al := range alarms {
		next := alarm.DeliveryTime(al).In(a.Location()).Format("2006-01-02 15:04")
		fmt.Printf("%-6d %-18s %-17s %-8v %s\n", al.RequestID, al.Kind, next, al.Exact, al.Label)
	}
	return nil
}
