// ledgerctl is the operator CLI for a ledgerd instance.
//
// Usage:
//
//	ledgerctl stage "pay Alice 10"
//	ledgerctl seal
//	ledgerctl blocks
//	ledgerctl verify
//	ledgerctl shell
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmerrifield20/hashledger/pkg/client"
)

var version = "dev"

// ── Root command ──────────────────────────────────────────────────────────

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate a hash-linked ledger",
	Long: `ledgerctl talks to a ledgerd server over its REST API.

Stage records, seal them into blocks, list the chain and check its integrity.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile := viper.GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.SetConfigFile(filepath.Join(home, ".ledgerctl", "config.yaml"))
		}
		viper.SetEnvPrefix("LEDGERCTL")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "ledgerd base URL")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for write commands")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.ledgerctl/config.yaml)")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(stageCmd, sealCmd, blocksCmd, blockCmd, verifyCmd, statusCmd, tokenCmd, shellCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// newClient builds an SDK client from the resolved server and token settings.
func newClient() (*client.Client, error) {
	opts := []client.Option{}
	if tok := viper.GetString("token"); tok != "" {
		opts = append(opts, client.WithBearerToken(tok))
	}
	c, err := client.New(viper.GetString("server"), opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ledgerctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "ledgerctl", version)
	},
}
