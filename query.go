package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newQueryCmd builds the query subcommand. The query text comes from the
// argument, from a file with the @file syntax, or from stdin when the
// argument is "-" or absent.
func newQueryCmd() *cobra.Command {
	var (
		flagVars     []string
		flagVarsJSON string
	)

	cmd := &cobra.Command{
		Use:   "query [QUERY | @FILE | -]",
		Short: "Execute a GraphQL query",
		Long: "Execute a raw GraphQL query and print the response JSON.\n" +
			"Pass the query inline, as @file, or on stdin. Variables can be given\n" +
			"individually with --var key=value or as a JSON object with --variables.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQueryText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			variables, err := resolveVariables(flagVars, flagVarsJSON)
			if err != nil {
				return err
			}

			logger := buildLogger()

			client, err := newClient(cmd.Context(), logger)
			if err != nil {
				return err
			}

			raw, err := client.Query(cmd.Context(), query, variables)
			if err != nil {
				return err
			}

			return renderJSON(cmd.OutOrStdout(), raw)
		},
	}

	cmd.Flags().StringArrayVar(&flagVars, "var", nil, "query variable as key=value (repeatable)")
	cmd.Flags().StringVar(&flagVarsJSON, "variables", "", "query variables as a JSON object")

	return cmd
}

// readQueryText resolves the query source: inline argument, @file, or stdin.
func readQueryText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading query from stdin: %w", err)
		}

		return string(data), nil
	}

	arg := args[0]

	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", fmt.Errorf("reading query file: %w", err)
		}

		return string(data), nil
	}

	return arg, nil
}

// resolveVariables merges --variables JSON with individual --var flags.
// --var entries win on key collision because they are the more specific
// override.
func resolveVariables(vars []string, varsJSON string) (map[string]any, error) {
	result := map[string]any{}

	if varsJSON != "" {
		if err := json.Unmarshal([]byte(varsJSON), &result); err != nil {
			return nil, fmt.Errorf("parsing --variables: %w", err)
		}
	}

	for _, v := range vars {
		key, value, found := strings.Cut(v, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q (want key=value)", v)
		}

		result[key] = parseVarValue(value)
	}

	return result, nil
}

// parseVarValue interprets a --var value as a JSON literal when it parses as
// one (numbers, booleans, null, quoted strings, objects, arrays) and as a
// plain string otherwise, so --var limit=10 sends a number and
// --var name=alice sends a string.
func parseVarValue(value string) any {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		return parsed
	}

	return value
}
