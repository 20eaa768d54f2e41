// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/seedfile"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <seed-file>",
	Short: "Validate seed references against OpenAlex and Semantic Scholar",
	Long: `Resolve reads a JSON or YAML reference list and checks every entry against
the metadata providers: batched identifier lookups against OpenAlex first,
Semantic Scholar as fallback, and exact-match title search for anything
still unresolved. Every input gets an outcome; a provider outage reduces
coverage instead of failing the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Bool("json", false, "output the full resolution result as JSON")
	resolveCmd.Flags().String("output", "", "write output to a file instead of stdout")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	refs, err := seedfile.LoadReferences(args[0])
	if err != nil {
		return err
	}

	eng, err := buildEngines(cmd)
	if err != nil {
		return err
	}
	defer eng.close()

	res := eng.resolver.Resolve(cmd.Context(), refs, os.Stderr)

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return formatResolveOutput(out, res)
}

func formatResolveOutput(out *os.File, res types.ResolutionResult) error {
	fmt.Fprintf(out, "%-12s  %-6s  %-6s  %-50s  %-30s  %s\n",
		"ID", "Found", "Via", "Title", "DOI", "Year")
	fmt.Fprintln(out, strings.Repeat("-", 116))

	for _, o := range res.Results {
		via := "-"
		title, doi, year := "", "", ""
		if o.Found {
			via = "id"
			if o.SearchedByTitle {
				via = "title"
			}
			title = truncate(o.Data.Title, 50)
			doi = truncate(o.Data.DOI, 30)
			if o.Data.Year > 0 {
				year = fmt.Sprintf("%d", o.Data.Year)
			}
		}
		fmt.Fprintf(out, "%-12s  %-6t  %-6s  %-50s  %-30s  %s\n",
			truncate(o.ID, 12), o.Found, via, title, doi, year)
	}

	fmt.Fprintf(out, "\n%d resolved by identifier, %d by title, %d not found\n",
		res.FoundByIdentifier, res.FoundByTitle, res.NotFound)
	if len(res.Deduplication) > 0 {
		var parts []string
		for kind, n := range res.Deduplication {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, n))
		}
		sort.Strings(parts)
		fmt.Fprintf(out, "duplicates dropped: %s\n", strings.Join(parts, ", "))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
