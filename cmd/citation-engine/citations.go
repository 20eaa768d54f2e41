// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/ris"
	"github.com/pdiddy/citation-engine/internal/seedfile"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var citationsCmd = &cobra.Command{
	Use:   "citations <seed-file>",
	Short: "Collect backward and forward citations for resolved references",
	Long: `Citations expands resolved seed references into their citation
neighborhoods: backward (works the seeds reference) and forward (works
citing the seeds). Results from OpenAlex and Semantic Scholar are merged
under a hierarchical identity key, so a work found by both providers
appears once with fields filled from both.

The seed file is a JSON or YAML list of seeds; with --from-resolution it is
the JSON output of the resolve subcommand instead, and the found outcomes
become the seeds.`,
	Args: cobra.ExactArgs(1),
	RunE: runCitations,
}

func init() {
	citationsCmd.Flags().String("provider", "both", "providers to query: openalex, semanticscholar, or both")
	citationsCmd.Flags().String("direction", "both", "directions to expand: backward, forward, or both")
	citationsCmd.Flags().Bool("ris", false, "output the combined list as RIS instead of JSON")
	citationsCmd.Flags().Bool("from-resolution", false, "treat the seed file as resolve --json output")
	citationsCmd.Flags().String("output", "", "write output to a file instead of stdout")

	rootCmd.AddCommand(citationsCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	seeds, err := loadSeeds(cmd, args[0])
	if err != nil {
		return err
	}

	providerFlag, _ := cmd.Flags().GetString("provider")
	directionFlag, _ := cmd.Flags().GetString("direction")
	opts := types.CitationOptions{
		Provider:  types.Provider(providerFlag),
		Direction: types.Direction(directionFlag),
	}
	if !opts.Provider.Valid() {
		return fmt.Errorf("unknown provider %q: use openalex, semanticscholar, or both", providerFlag)
	}
	if !opts.Direction.Valid() {
		return fmt.Errorf("unknown direction %q: use backward, forward, or both", directionFlag)
	}

	eng, err := buildEngines(cmd)
	if err != nil {
		return err
	}
	defer eng.close()

	res := eng.aggregator.Aggregate(cmd.Context(), seeds, opts, os.Stderr)

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if risOutput, _ := cmd.Flags().GetBool("ris"); risOutput {
		return ris.Write(out, res.Combined)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// loadSeeds reads the seed file, either as a plain seed list or as
// resolution output to chain the two subcommands.
func loadSeeds(cmd *cobra.Command, path string) ([]types.CitationSeed, error) {
	fromResolution, _ := cmd.Flags().GetBool("from-resolution")
	if !fromResolution {
		return seedfile.LoadCitationSeeds(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resolution file: %w", err)
	}
	var res types.ResolutionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing resolution file %s: %w", path, err)
	}

	var seeds []types.CitationSeed
	for _, o := range res.Results {
		if seed, ok := types.SeedFromOutcome(o); ok {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("resolution file %s contains no found references", path)
	}
	return seeds, nil
}
