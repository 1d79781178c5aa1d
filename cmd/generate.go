package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcaw/jekyll-github-scraper/internal/config"
	apperrors "github.com/jcaw/jekyll-github-scraper/internal/errors"
	"github.com/jcaw/jekyll-github-scraper/internal/gateway"
	"github.com/jcaw/jekyll-github-scraper/internal/store"
	"github.com/jcaw/jekyll-github-scraper/internal/usecase"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetches contributions and writes the data files",
	Long: `Fetches the configured user's contributions from GitHub and writes the
github-contributions, github-sources and github-recent-merged-prs data files.
Nothing is fetched while all three files are younger than the cache TTL.
The token is read from API_TOKEN_GITHUB (or GITHUB_TOKEN, or a .env file).`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		applyFlagOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if !cfg.HasToken() {
			strict, _ := cmd.Flags().GetBool("strict")
			if strict {
				fmt.Fprintf(os.Stderr, "Error: %v\n", apperrors.NewConfigurationError("API_TOKEN_GITHUB environment variable is not set", nil))
				os.Exit(1)
			}
			fmt.Fprintln(os.Stderr, "WARNING: No API key provided - cannot query GitHub API without a valid key. Set API_TOKEN_GITHUB before the build. Skipping GitHub contributions.")
			return
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg.Token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		aggregator := usecase.NewAggregator(githubGateway, cfg.Username, logger)
		generator := usecase.NewGenerator(aggregator, store.New(cfg.DataDir, logger), cfg.CacheTTL, cfg.StartYear, logger)

		if _, err := generator.Generate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate GitHub contributions: %v\n", err)
			os.Exit(1)
		}
	},
}

// applyFlagOverrides replaces config file values with flags the user set explicitly.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("username") {
		cfg.Username, _ = flags.GetString("username")
	}
	if flags.Changed("cache") {
		seconds, _ := flags.GetInt("cache")
		cfg.CacheTTL = time.Duration(seconds) * time.Second
	}
	if flags.Changed("start-year") {
		year, _ := flags.GetInt("start-year")
		cfg.StartYear = &year
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("username", "u", "", "GitHub user name (overrides githubcontributions.username)")
	generateCmd.Flags().Int("cache", 0, "Cache TTL in seconds (overrides githubcontributions.cache)")
	generateCmd.Flags().Int("start-year", 0, "Earliest year to query (overrides githubcontributions.start_year)")
	generateCmd.Flags().StringP("data-dir", "d", "", "Directory for the data files (overrides source/data_dir)")
	generateCmd.Flags().Bool("strict", false, "Fail instead of skipping when no GitHub token is set")
}
