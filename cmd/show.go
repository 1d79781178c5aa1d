package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jcaw/jekyll-github-scraper/internal/config"
	"github.com/jcaw/jekyll-github-scraper/internal/domain"
	"github.com/jcaw/jekyll-github-scraper/internal/store"
	"github.com/jcaw/jekyll-github-scraper/internal/usecase"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the stored data files as tables",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.DataDir = dir
		}
		st := store.New(cfg.DataDir, newLogger(cmd))
		out := cmd.OutOrStdout()

		var sources, contributions []*domain.RepositoryRecord
		for _, section := range []struct {
			slot    string
			records *[]*domain.RepositoryRecord
		}{
			{store.SlotSources, &sources},
			{store.SlotContributions, &contributions},
		} {
			fmt.Fprintf(out, "\n%s\n", section.slot)
			if err := st.Load(section.slot, section.records); err != nil {
				fmt.Fprintf(out, "  unavailable: %v\n", err)
				continue
			}
			renderRepositories(out, *section.records)
		}

		fmt.Fprintf(out, "\n%s\n", store.SlotRecentPRs)
		var prs []domain.RecentPullRequest
		if err := st.Load(store.SlotRecentPRs, &prs); err != nil {
			fmt.Fprintf(out, "  unavailable: %v\n", err)
		} else {
			renderPullRequests(out, prs)
		}

		s := usecase.Summarize(sources, contributions)
		fmt.Fprintf(out, "\n%d sources, %d contributions, %d commits, %d PRs, median %.1f commits per repository\n",
			s.Sources, s.Contributions, s.TotalCommits, s.TotalPRs, s.MedianCommits)
	},
}

func renderRepositories(w io.Writer, records []*domain.RepositoryRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Commits", "PRs", "Description"})
	table.SetAutoWrapText(false)
	for _, r := range records {
		table.Append([]string{r.FullName, strconv.Itoa(r.NCommits), strconv.Itoa(r.NPRs), r.DescriptionNoEmojis})
	}
	table.Render()
}

func renderPullRequests(w io.Writer, prs []domain.RecentPullRequest) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Title", "+", "-"})
	table.SetAutoWrapText(false)
	for _, pr := range prs {
		table.Append([]string{pr.Repository.NameWithOwner, pr.Title, strconv.Itoa(pr.Additions), strconv.Itoa(pr.Deletions)})
	}
	table.Render()
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("data-dir", "d", "", "Directory holding the data files (overrides source/data_dir)")
}
