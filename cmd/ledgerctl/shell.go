package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmerrifield20/hashledger/pkg/client"
)

const (
	menuStage    = "Add record"
	menuSeal     = "Seal block"
	menuDisplay  = "Display chain"
	menuValidate = "Check validity"
	menuExit     = "Exit"
)

// ── ledgerctl shell ───────────────────────────────────────────────────────

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive menu for staging, sealing and inspecting the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		pterm.DefaultBox.WithTitle("ledgerctl").Println("Connected to " + viper.GetString("server"))

		options := []string{menuStage, menuSeal, menuDisplay, menuValidate, menuExit}
		for {
			choice, err := pterm.DefaultInteractiveSelect.WithOptions(options).Show("Enter your choice")
			if err != nil {
				return err
			}
			if choice == menuExit {
				return nil
			}
			if err := runMenuChoice(cmd, c, choice); err != nil {
				pterm.Error.Println(err)
			}
		}
	},
}

func runMenuChoice(cmd *cobra.Command, c *client.Client, choice string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch choice {
	case menuStage:
		payload, err := pterm.DefaultInteractiveTextInput.Show("Enter record payload")
		if err != nil {
			return err
		}
		if strings.TrimSpace(payload) == "" {
			return errors.New("payload must not be empty")
		}
		if _, err := c.Stage(ctx, payload); err != nil {
			return err
		}
		pterm.Success.Println("Record staged.")
	case menuSeal:
		b, err := c.Seal(ctx)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Block %d sealed successfully!", b.Index)
	case menuDisplay:
		blocks, err := c.Blocks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, renderChain(blocks))
	case menuValidate:
		v, err := c.Verify(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderValidity(v.Valid))
	default:
		return fmt.Errorf("invalid choice %q", choice)
	}
	return nil
}
