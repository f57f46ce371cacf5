package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/deal-finder/internal/config"
	"github.com/donaldgifford/deal-finder/internal/engine"
	"github.com/donaldgifford/deal-finder/pkg/llm"
	"github.com/donaldgifford/deal-finder/pkg/logger"
	domain "github.com/donaldgifford/deal-finder/pkg/types"
)

type searchOptions struct {
	products []string
	count    int
	mode     string
	jsonOut  bool
}

func searchCommand() *cobra.Command {
	var opts searchOptions

	searchCmd := &cobra.Command{
		Use:   "search [request]",
		Short: "Run one deal search without starting the server",
		Long: "Runs the full pipeline in-process for a single request, printing progress " +
			"to stderr and the ranked summary to stdout.",
		Example: `  deal-finder search "used RTX 3090 under 1500 leva"
  deal-finder search --product "iPhone 13" --count 5 "phone for my kid"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], &opts)
		},
	}
	searchCmd.Flags().StringSliceVar(&opts.products, "product", nil, "product to search for; skips request parsing")
	searchCmd.Flags().IntVar(&opts.count, "count", 0, "listings to return when --product is set")
	searchCmd.Flags().StringVar(&opts.mode, "llm-mode", "", "override the LLM mode (structured, tool_calling)")
	searchCmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the ranked listings as JSON")

	return searchCmd
}

func runSearch(cmd *cobra.Command, request string, opts *searchOptions) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if opts.mode != "" {
		mode, err := llm.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		cfg.LLM.ToolCalling = mode == llm.ModeToolCalling
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	p, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	progress := charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "deal-finder"})

	req := engine.Request{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: request}},
	}
	if len(opts.products) > 0 {
		req.Parsed = &domain.ParsedRequest{Products: opts.products, MaxProductsCount: opts.count}
	}

	res, err := p.engine.RunPipeline(cmd.Context(), req, engine.SinkFunc(func(e engine.Event) {
		switch e.Stage {
		case engine.StageFailed:
			progress.Error(e.Describe())
		case engine.StageFetchError, engine.StageScoreWarning:
			progress.Warn(e.Describe())
		case engine.StageScoreProgress:
			progress.Debug(e.Describe())
		default:
			progress.Info(e.Describe())
		}
	}))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.State.ScoredListings)
	}

	_, err = fmt.Fprintln(out, strings.TrimSpace(res.Summary))
	return err
}
