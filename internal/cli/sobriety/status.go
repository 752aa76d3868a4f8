package sobriety

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

const progressWidth = 30

type StatusCmd struct {
	JSON bool `help:"Print the status as JSON."`
}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	st, err := a.Status(ctx.Ctx())
	if err != nil {
		return err
	}

	if c.JSON {
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	l := st.Ledger
	fmt.Println(headerStyle.Render(fmt.Sprintf("Day %d", l.DaysSober)))
	fmt.Printf("Sober since:        %s\n", l.StartDate.In(a.Location()).Format(constants.DateFormat))
	fmt.Printf("Confirmed days:     %d\n", l.ConfirmedDaysSober)
	fmt.Printf("Check-in streak:    %d (best %d)\n", l.CurrentStreak, l.BestStreak)
	if a.Settings().DailyCost > 0 {
		fmt.Printf("Money saved:        %.2f\n", st.MoneySaved)
	}

	if l.CheckedInToday {
		fmt.Println(goodStyle.Render("✓ Checked in today"))
	} else {
		fmt.Println(mutedStyle.Render("Not checked in yet today, run 'soberlit confirm'"))
	}

	if st.Next != nil {
		fmt.Printf("\nNext milestone: %s in %d day(s)\n", st.Next.Title, st.DaysToNext)
		fmt.Printf("%s %.0f%%\n", progressBar(st.Progress), st.Progress*100)
	} else {
		fmt.Println("\nEvery time milestone reached.")
	}

	if st.CheckinArmed && st.NextCheckinAt != nil {
		fmt.Println(mutedStyle.Render("Next check-in: " + st.NextCheckinAt.In(a.Location()).Format("Mon 15:04")))
	}
	return nil
}

func progressBar(p float64) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	filled := int(p * progressWidth)
	return goodStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", progressWidth-filled))
}
