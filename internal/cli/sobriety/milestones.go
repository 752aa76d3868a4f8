package sobriety

import (
	"fmt"
	"time"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/utils"
)

type MilestonesCmd struct {
	List    MilestonesListCmd    `cmd:"" help:"List achievements." default:"1"`
	Journal MilestonesJournalCmd `cmd:"" help:"Evaluate journal achievements for the given entry dates."`
}

type MilestonesListCmd struct {
	Unlocked bool `help:"Only show unlocked achievements."`
}

func (c *MilestonesListCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	list, err := a.Milestones.Achievements(ctx.Ctx())
	if err != nil {
		return err
	}

	var category models.AchievementCategory
	for _, ach := range list {
		if c.Unlocked && !ach.Unlocked {
			continue
		}
		if ach.Category != category {
			category = ach.Category
			fmt.Println(headerStyle.Render(string(category)))
		}
		if ach.Unlocked && ach.UnlockedAt != nil {
			fmt.Printf("  %s %-28s %s\n", goodStyle.Render("✓"), ach.Title,
				mutedStyle.Render(ach.UnlockedAt.In(a.Location()).Format(constants.DateFormat)))
		} else {
			fmt.Printf("  %s %s\n", mutedStyle.Render("·"), mutedStyle.Render(ach.Title))
		}
	}
	return nil
}

type MilestonesJournalCmd struct {
	Dates []string `arg:"" help:"Journal entry dates (YYYY-MM-DD or RFC 3339)."`
}

func (c *MilestonesJournalCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	entries := make([]time.Time, 0, len(c.Dates))
	for _, d := range c.Dates {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			t, err = utils.ParseDateInLocation(d, a.Location())
		}
		if err != nil {
			return fmt.Errorf("invalid journal date %q", d)
		}
		entries = append(entries, t)
	}

	unlocked, err := a.RecordJournal(ctx.Ctx(), entries)
	if err != nil {
		return err
	}
	if len(unlocked) == 0 {
		fmt.Println("No new journal achievements.")
		return nil
	}
	for _, ach := range unlocked {
		fmt.Printf("🏆 %s\n", ach.Title)
	}
	return nil
}
