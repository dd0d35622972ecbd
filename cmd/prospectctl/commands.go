package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/logger"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/extractor"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/keywords"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/orchestrator"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
)

func NewRoot() *cobra.Command {
	var logLevel string
	var pretty bool

	root := &cobra.Command{
		Use:           "prospectctl",
		Short:         "Discover and score prospect email addresses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			logger.Setup(logLevel, pretty)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
	root.PersistentFlags().BoolVar(&pretty, "pretty", true, "Human readable logs on stderr")

	root.AddCommand(
		discoverCmd(),
		planCmd(),
		scoreCmd(),
		extractCmd(),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func discoverCmd() *cobra.Command {
	var (
		limit     int
		industry  string
		audience  string
		ownDomain string
		adapters  []string
		patterns  bool
	)

	cmd := &cobra.Command{
		Use:   "discover QUERY",
		Short: "Search the configured backends for prospects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			cfg.LoadFromEnv()
			if len(adapters) > 0 {
				cfg.Search.Priority = adapters
			}
			if patterns {
				cfg.Discovery.PatternFallback = true
			}

			built, err := source.Build(cfg.Search, source.Dependencies{Cache: source.NewMemoryCache()})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if limit <= 0 {
				limit = int(cfg.Discovery.DefaultMaxResults)
			}
			report := orchestrator.New(built, cfg.Discovery).Discover(ctx, orchestrator.Request{
				Query:      args[0],
				Industry:   industry,
				MaxResults: limit,
				Audience:   common.ParseAudience(audience),
				OwnDomain:  ownDomain,
			})
			return writeJSON(cmd.OutOrStdout(), report.Response)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of prospects")
	cmd.Flags().StringVar(&industry, "industry", "", "Target industry, defaults to the query")
	cmd.Flags().StringVar(&audience, "audience", "any", "any, business or consumer")
	cmd.Flags().StringVar(&ownDomain, "own-domain", "", "Domain to leave out of the results")
	cmd.Flags().StringSliceVar(&adapters, "adapters", nil, "Adapters to use, in priority order")
	cmd.Flags().BoolVar(&patterns, "patterns", false, "Fall back to guessed addresses when nothing is found")
	return cmd
}

func planCmd() *cobra.Command {
	var industry, strategyFile string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Turn a strategy and an industry into search keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			var strategy *models.Strategy
			if strategyFile != "" {
				data, err := os.ReadFile(strategyFile)
				if err != nil {
					return err
				}
				strategy = &models.Strategy{}
				if err := json.Unmarshal(data, strategy); err != nil {
					return fmt.Errorf("%w: %v", common.ErrInvalidStrategy, err)
				}
			}
			if strategy == nil && strings.TrimSpace(industry) == "" {
				return fmt.Errorf("%w: --industry or --strategy is required", common.ErrInvalidStrategy)
			}

			planner := keywords.NewPlanner()
			return writeJSON(cmd.OutOrStdout(), map[string][]string{
				"keywords":            planner.Plan(strategy, industry),
				"creative_variations": planner.PlanCreativeVariations(industry),
			})
		},
	}
	cmd.Flags().StringVar(&industry, "industry", "", "Target industry")
	cmd.Flags().StringVar(&strategyFile, "strategy", "", "JSON file with the marketing strategy")
	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score EMAIL...",
		Short: "Score addresses for business and consumer targeting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tVALID\tBUSINESS\tPERSONAL\tROLE\tDECISION MAKER")
			for _, email := range args {
				email = models.NormalizeEmail(email)
				role := scoring.InferRole(email, "")
				fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%s\t%t\n",
					email, extractor.IsValid(email), scoring.Business(email), scoring.Personal(email), role.Title, role.DecisionMaker)
			}
			return tw.Flush()
		},
	}
}

func extractCmd() *cobra.Command {
	var likelyReal bool

	cmd := &cobra.Command{
		Use:   "extract [FILE]",
		Short: "Print the email addresses found in a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			found := extractor.Extract(string(data))
			if likelyReal {
				found = extractor.ExtractLikelyReal(string(data))
			}
			for _, email := range found {
				fmt.Fprintln(cmd.OutOrStdout(), email)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&likelyReal, "likely-real", false, "Keep only addresses that look like real people or inboxes")
	return cmd
}
