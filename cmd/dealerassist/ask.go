package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-dealer-assistant/internal/app"
)

var (
	askRole    string
	askVerbose bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a single query and print the reply",
	Example: `  dealerassist ask --role dealer "show pending claims"
  dealerassist ask --role admin -v "sales in Chennai"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		reply, out := a.Composer.Compose(cmd.Context(), strings.ToLower(askRole), strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		if askVerbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "intent=%s source=%s skus=%d claims=%d sales=%d model_key=%t\n",
				out.Intent, out.Source, out.Counts.SKUs, out.Counts.Claims, out.Counts.Sales, a.Creds.Configured())
			if out.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %v\n", out.Err)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askRole, "role", "", "caller role: dealer, sales_rep or admin")
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "print how the reply was produced")
}
