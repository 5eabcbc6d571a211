package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmerrifield20/hashledger/internal/auth"
)

// ── ledgerctl token ───────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator token signed with the server's auth secret",
	Long: `Mint an HS256 operator token. The secret must match ledgerd's auth.secret.

  ledgerctl token --secret $AUTH_SECRET --subject ops --write`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := viper.GetString("secret")
		if secret == "" {
			return errors.New("--secret is required")
		}
		subject, _ := cmd.Flags().GetString("subject")
		issuer, _ := cmd.Flags().GetString("issuer")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		write, _ := cmd.Flags().GetBool("write")

		var scopes []string
		if write {
			scopes = append(scopes, auth.ScopeWrite)
		}
		tok, err := auth.NewTokenIssuer(secret, issuer, ttl).Issue(subject, scopes)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("secret", "", "HMAC secret shared with ledgerd")
	tokenCmd.Flags().String("subject", "operator", "Token subject")
	tokenCmd.Flags().String("issuer", "hashledger", "Token issuer, must match ledgerd's auth.issuer")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	tokenCmd.Flags().Bool("write", true, "Grant the ledger:write scope")
	_ = viper.BindPFlag("secret", tokenCmd.Flags().Lookup("secret"))
}
