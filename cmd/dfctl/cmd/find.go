package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/deal-finder/internal/api/handlers"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

func findCmd() *cobra.Command {
	var (
		products []string
		count    int
		configs  bool
		follow   bool
	)

	cmd := &cobra.Command{
		Use:   "find [request]",
		Short: "Find deals for a shopping request",
		Long: "Sends the request to the server and prints the ranked listings.\n" +
			"With --follow, progress events are printed as the run advances.",
		Example: `  dfctl find "used RTX 3090 under 1500 leva"
  dfctl find --follow --product "iPhone 13" --count 5 "phone for my kid"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &handlers.RunRequest{
				Messages: []domain.Message{{Role: domain.RoleUser, Content: args[0]}},
				Products: products,
			}
			if len(products) > 0 {
				req.MaxProductsCount = count
				req.IncludeConfigurations = configs
			}

			if follow {
				return followRun(cmd, req)
			}

			resp, err := newClient().Invoke(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			return printRunResult(resp)
		},
	}

	cmd.Flags().StringSliceVar(&products, "product", nil, "product to search for; skips request parsing")
	cmd.Flags().IntVar(&count, "count", 0, "listings to return when --product is set")
	cmd.Flags().BoolVar(&configs, "include-configurations", false, "keep listings bundling the product into a larger system")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream progress events")

	return cmd
}

// followRun streams the run, printing each event, then the final summary.
func followRun(cmd *cobra.Command, req *handlers.RunRequest) error {
	var final *handlers.StreamEvent

	err := newClient().Stream(cmd.Context(), req, func(e handlers.StreamEvent) error {
		if jsonOutput() {
			return outputJSON(e)
		}
		fmt.Fprintf(os.Stderr, "[%02d] %s\n", e.Seq, e.Description)
		if e.Stage.Terminal() {
			final = &e
		}
		return nil
	})
	if err != nil {
		return err
	}

	if final != nil && !jsonOutput() {
		fmt.Println()
		fmt.Println(final.Summary)
	}
	return nil
}
