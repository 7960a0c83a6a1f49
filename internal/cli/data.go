package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tutor/internal/sqlite"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <dir>",
		Short: "Load students and vocabulary from JSONL files",
		Long: `Seed reads ` + sqlite.StudentsFile + ` and ` + sqlite.VocabularyFile + ` from dir and inserts
their records in one transaction. Malformed lines and records that violate a
constraint are skipped and counted. Missing files are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.backend.Import(cmd.Context(), args[0])
	if err != nil {
		return sysError("seed: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return writeJSONOut(out, stats)
	}
	files := make([]string, 0, len(stats.Inserted))
	for f := range stats.Inserted {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(out, "%s: %d inserted, %d skipped\n", f, stats.Inserted[f], stats.Skipped[f])
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "nothing to seed")
	}
	return nil
}

func newExportCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write students and vocabulary as JSONL files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, outDir)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}

func runExport(cmd *cobra.Command, outDir string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	students, vocabulary, err := a.backend.Export(cmd.Context(), outDir)
	if err != nil {
		return sysError("export: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return writeJSONOut(out, map[string]int{"students": students, "vocabulary": vocabulary})
	}
	fmt.Fprintf(out, "exported %d students and %d vocabulary entries to %s\n", students, vocabulary, outDir)
	return nil
}

func newMigrateLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-links",
		Short: "Rewrite stored link lists in the JSON encoding",
		Long: `migrate-links converts link lists stored in the older "name | url" line
format to the JSON list encoding. Lists that parse in neither format are
reported and left unchanged.`,
		Args: cobra.NoArgs,
		RunE: runMigrateLinks,
	}
}

func runMigrateLinks(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.ledger.NormalizeAll(cmd.Context())
	if err != nil {
		return sysError("migrate links: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return writeJSONOut(out, report)
	}
	fmt.Fprintf(out, "scanned %d students, converted %d\n", report.Scanned, len(report.Converted))
	for _, id := range report.Malformed {
		fmt.Fprintf(out, "  student %d: link list is malformed, left unchanged\n", id)
	}
	return nil
}

func writeJSONOut(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
