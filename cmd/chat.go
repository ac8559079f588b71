package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/format"
	"github.com/spigell/hh-roster/internal/retrieval"
	"github.com/spigell/hh-roster/internal/roster"
)

const (
	PromptBack    = "back"
	filterCommand = "/filter"
)

var errExit = errors.New("exit requested")

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask about employees interactively",
	Long: `Ask about employees interactively.

Free text is answered by semantic search. A line starting with /filter runs a
structured search, e.g. "/filter skill=python min_experience=3 project=billing".
Type "exit" or press Ctrl+D to quit.`,
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chat(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := bootstrap(ctx)
	defer env.Close()

	out := cmd.OutOrStdout()
	queryPrompt := promptui.Prompt{
		Label: "Who are you looking for",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("query must not be empty")
			}
			return nil
		},
	}

	for {
		line, err := queryPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			env.logger.Fatal("reading query", zap.Error(err))
		}

		err = answer(ctx, out, env, strings.TrimSpace(line))
		switch {
		case errors.Is(err, errExit):
			return
		case errors.Is(err, retrieval.ErrInvalidCriteria), errors.Is(err, retrieval.ErrEmbedding):
			fmt.Fprintln(out, err)
		case err != nil:
			env.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func answer(ctx context.Context, out io.Writer, e *env, line string) error {
	var (
		title   string
		results []roster.EmployeeRecord
		err     error
	)

	switch {
	case strings.EqualFold(line, "exit"), strings.EqualFold(line, "quit"):
		return errExit
	case strings.HasPrefix(line, filterCommand):
		var criteria retrieval.Criteria
		criteria, err = parseFilterLine(strings.TrimPrefix(line, filterCommand))
		if err != nil {
			return err
		}
		title = describeCriteria(criteria)
		results, err = e.engine.RetrieveByFilter(ctx, criteria)
	default:
		title = line
		results, err = e.engine.RetrieveByText(ctx, line, e.config.Retrieval.TopK)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, format.Results(title, results))
	return browse(out, results)
}

// parseFilterLine reads "key=value" pairs; values may not contain spaces.
func parseFilterLine(s string) (retrieval.Criteria, error) {
	values := map[string]string{}
	for _, field := range strings.Fields(s) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return retrieval.Criteria{}, fmt.Errorf("%w: expected key=value, got %q", retrieval.ErrInvalidCriteria, field)
		}
		key = strings.ReplaceAll(strings.ToLower(key), "-", "_")
		switch key {
		case "skill", "min_experience", "project":
			values[key] = value
		default:
			return retrieval.Criteria{}, fmt.Errorf("%w: unknown filter %q", retrieval.ErrInvalidCriteria, key)
		}
	}

	return retrieval.ParseCriteria(values["skill"], values["min_experience"], values["project"])
}

// browse lets the user open any result as JSON until they choose to go back.
func browse(out io.Writer, results []roster.EmployeeRecord) error {
	if len(results) == 0 {
		return nil
	}

	items := make([]string, 0, len(results)+1)
	for i, r := range results {
		items = append(items, fmt.Sprintf("%d. %s (%s)", i+1, r.Name, r.Availability))
	}
	items = append(items, PromptBack)

	for {
		selector := promptui.Select{
			Label: "Choose an employee and press ENTER",
			Items: items,
		}

		idx, _, err := selector.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		if idx == len(results) {
			return nil
		}
		printJSON(out, results[idx])
	}
}
