package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ── ledgerctl stage ───────────────────────────────────────────────────────

var stageCmd = &cobra.Command{
	Use:   "stage <payload>",
	Short: "Stage a record for the next block",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.Stage(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Staged %q at %s", rec.Payload, humanTime(rec.StagedAt))
		return nil
	},
}

// ── ledgerctl seal ────────────────────────────────────────────────────────

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Seal all staged records into a new block",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		spinner, _ := pterm.DefaultSpinner.Start("Sealing block...")
		b, err := c.Seal(cmd.Context())
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success(fmt.Sprintf("Block %d sealed with %d record(s)", b.Index, len(b.Records)))
		fmt.Fprint(cmd.OutOrStdout(), renderBlock(*b))
		return nil
	},
}

// ── ledgerctl blocks ──────────────────────────────────────────────────────

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Display the whole chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		blocks, err := c.Blocks(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderChain(blocks))
		return nil
	},
}

// ── ledgerctl block ───────────────────────────────────────────────────────

var blockCmd = &cobra.Command{
	Use:   "block <index>",
	Short: "Display a single block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index must be an integer: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		b, err := c.Block(cmd.Context(), idx)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderBlock(*b))
		return nil
	},
}

// ── ledgerctl verify ──────────────────────────────────────────────────────

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the chain's integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		v, err := c.Verify(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderValidity(v.Valid))
		if !v.Valid {
			pterm.Warning.Println(v.Error)
			return fmt.Errorf("chain is invalid")
		}
		return nil
	},
}

// ── ledgerctl status ──────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chain length, head hash and staged records",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		o, err := c.Overview(cmd.Context())
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
			{"Blocks", "Head", "Staged", "Digest"},
			{strconv.Itoa(o.Blocks), o.Head, strconv.Itoa(o.Staged), o.Algorithm},
		}).Render()
	},
}
