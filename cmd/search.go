package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/format"
	"github.com/spigell/hh-roster/internal/retrieval"
	"github.com/spigell/hh-roster/internal/roster"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a single query against the roster and print the result",
}

var searchTextCmd = &cobra.Command{
	Use:   "text <query>",
	Short: "Rank employees by semantic similarity to a free-text query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		searchText(cmd, strings.Join(args, " "))
	},
}

var searchFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter employees by skill, minimum experience and project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return searchFilter(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchTextCmd, searchFilterCmd)

	searchCmd.PersistentFlags().BoolP("summary", "s", false, "print a plain text summary instead of JSON")

	searchTextCmd.Flags().IntP("top", "k", 0, "number of results (default from retrieval.top-k)")
	searchTextCmd.Flags().Bool("scores", false, "print similarity scores")

	searchFilterCmd.Flags().String("skill", "", "required skill, case-insensitive exact match")
	searchFilterCmd.Flags().String("min-experience", "", "minimum years of experience")
	searchFilterCmd.Flags().String("project", "", "past project name fragment, case-insensitive")
}

func searchText(cmd *cobra.Command, query string) {
	env := bootstrap(cmd.Context())
	defer env.Close()

	k, _ := cmd.Flags().GetInt("top")
	if k <= 0 {
		k = env.config.Retrieval.TopK
	}

	matches, err := env.engine.ScoreByText(cmd.Context(), query, k)
	if err != nil {
		env.logger.Fatal("semantic search", zap.Error(err))
	}

	records := make([]roster.EmployeeRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, m.Record)
	}

	out := cmd.OutOrStdout()
	switch {
	case flagSet(cmd, "scores"):
		printScores(out, matches)
	case flagSet(cmd, "summary"):
		fmt.Fprintln(out, format.Results(query, records))
	default:
		printJSON(out, map[string]any{"query": query, "results": records, "count": len(records)})
	}
}

func searchFilter(cmd *cobra.Command) error {
	skill, _ := cmd.Flags().GetString("skill")
	minExperience, _ := cmd.Flags().GetString("min-experience")
	project, _ := cmd.Flags().GetString("project")

	criteria, err := retrieval.ParseCriteria(skill, minExperience, project)
	if err != nil {
		return err
	}

	env := bootstrap(cmd.Context())
	defer env.Close()

	records, err := env.engine.RetrieveByFilter(cmd.Context(), criteria)
	if err != nil {
		env.logger.Fatal("structured search", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	if flagSet(cmd, "summary") {
		fmt.Fprintln(out, format.Results(describeCriteria(criteria), records))
		return nil
	}
	printJSON(out, map[string]any{"filters": criteria, "results": records, "count": len(records)})
	return nil
}

func describeCriteria(c retrieval.Criteria) string {
	parts := make([]string, 0, 3)
	if c.Skill != nil {
		parts = append(parts, "skill="+*c.Skill)
	}
	if c.MinExperience != nil {
		parts = append(parts, fmt.Sprintf("min_experience=%d", *c.MinExperience))
	}
	if c.Project != nil {
		parts = append(parts, "project="+*c.Project)
	}
	if len(parts) == 0 {
		return "all employees"
	}
	return strings.Join(parts, ", ")
}

func printScores(w io.Writer, matches []retrieval.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "no employees in the roster")
		return
	}
	for i, m := range matches {
		fmt.Fprintf(w, "%d. %-24s %.4f  %s\n", i+1, m.Record.Name, m.Score, m.Record.SkillDescription())
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func flagSet(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	return err == nil && v
}
