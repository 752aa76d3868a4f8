package sobriety

import (
	"fmt"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/utils"
)

type ConfirmCmd struct{}

func (c *ConfirmCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	l, changed, err := a.Confirm(ctx.Ctx())
	if err != nil {
		return err
	}
	if !changed {
		fmt.Println("Already checked in today.")
		return nil
	}
	fmt.Printf("✓ Sober day confirmed. Check-in streak: %d\n", l.CurrentStreak)
	return nil
}

type RelapseCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *RelapseCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ok, err := cli.Confirm("Reset your sobriety counter?",
			"Your start date moves to now. Unlocked milestones and your best streak are kept.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Nothing changed.")
			return nil
		}
	}

	a, err := ctx.App()
	if err != nil {
		return err
	}
	if _, err := a.Relapse(ctx.Ctx()); err != nil {
		return err
	}
	fmt.Println("Counter reset. Today counts as day one of a new run.")
	return nil
}

type StartDateCmd struct {
	Date         string `arg:"" help:"Sobriety start date (YYYY-MM-DD)."`
	Reinitialize bool   `help:"Also recompute confirmed days from the new start date."`
}

func (c *StartDateCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	start, err := utils.ParseDateInLocation(c.Date, a.Location())
	if err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", c.Date)
	}

	l, err := a.SetStartDate(ctx.Ctx(), start, c.Reinitialize)
	if err != nil {
		return err
	}
	days, err := a.Ledger.GetDaysSober(ctx.Ctx())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Sober since %s (%d day(s))\n", l.StartDate.In(a.Location()).Format(constants.DateFormat), days)
	return nil
}

type ResetCmd struct {
	Wipe bool `help:"Delete the ledger, unlocked milestones and scheduled reminders." required:""`
	Yes  bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ok, err := cli.Confirm("Wipe all sobriety data?",
			"A backup is created first. Settings and reminder preferences are kept.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Nothing changed.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()

	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.Wipe(ctx.Ctx()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("✓ All sobriety data deleted. Run 'soberlit reminders schedule' to re-arm reminders.")
	return nil
}
