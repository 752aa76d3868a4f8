package buddy

import (
	"errors"
	"fmt"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/keyring"
	"github.com/julianstephens/soberlit/internal/notifier"
)

type BuddyCmd struct {
	SetSecret   SetSecretCmd   `cmd:"" help:"Store the webhook secret in the OS keyring."`
	ClearSecret ClearSecretCmd `cmd:"" help:"Remove the webhook secret from the OS keyring."`
	Test        TestCmd        `cmd:"" help:"Send a test event to the accountability buddy."`
}

type SetSecretCmd struct {
	Secret string `arg:"" help:"Shared secret sent with every buddy notification."`
}

func (c *SetSecretCmd) Run(ctx *cli.Context) error {
	if c.Secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.SetBuddySecret(c.Secret); err != nil {
		return fmt.Errorf("failed to store buddy secret in keyring: %w", err)
	}
	fmt.Println("✓ Buddy secret stored in OS keyring")
	return nil
}

type ClearSecretCmd struct{}

func (c *ClearSecretCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteBuddySecret(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no buddy secret found in keyring")
		}
		return fmt.Errorf("failed to delete buddy secret from keyring: %w", err)
	}
	fmt.Println("✓ Buddy secret deleted from OS keyring")
	return nil
}

type TestCmd struct{}

func (c *TestCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if !a.Buddy.Enabled() {
		return errors.New("no buddy webhook configured, set one with 'soberlit settings --buddy-url URL'")
	}

	snap, err := a.Ledger.Snapshot(ctx.Ctx())
	if err != nil {
		return err
	}
	err = a.Buddy.Send(ctx.Ctx(), notifier.BuddyPayload{
		Event:     notifier.BuddyEventTest,
		DaysSober: snap.DaysSober,
		Streak:    snap.CurrentStreak,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Test event delivered to %s\n", a.Buddy.URL())
	return nil
}
