// Package cli is the storefront command line. Every command opens the
// persisted session, drives the app layer and renders the resulting page.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Execute runs the storefront command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Terminal client for the storefront shop API",
		Long: `storefront - terminal client for the storefront shop API

Browse the catalog, manage a cart, check out and follow orders from the
command line or the interactive shell. Admins manage products, orders and
users. The session (token, guest cart id, last page) is kept between runs.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Config file path (default ~/.storefront/config.yaml)")
	root.PersistentFlags().String("api", "", "API base URL (overrides config)")
	root.PersistentFlags().Duration("timeout", 0, "Request timeout (overrides config)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug logging on stderr")
	root.PersistentFlags().StringP("format", "f", "", "Output format (text, json)")
	root.PersistentFlags().String("session-db", "", "Session database path (overrides config)")

	root.AddCommand(
		newVersionCmd(),
		newShopCmd(),
		newViewCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newRegisterCmd(),
		newWhoamiCmd(),
		newProductsCmd(),
		newCartCmd(),
		newCheckoutCmd(),
		newOrdersCmd(),
		newContactCmd(),
		newAdminCmd(),
		newSessionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storefront %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// defaultPruneAge is how old a stored session must be before
// "session prune" removes it.
const defaultPruneAge = 30 * 24 * time.Hour
