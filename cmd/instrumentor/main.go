package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Metadata describes every CID inserted into the instrumented file.
type Metadata struct {
	Columns []string           // List of CIDs in string format, defining the vector order
	Details map[string]VarInfo // Details for each CID
}

var rootCmd = &cobra.Command{
	Use:   "instrumentor",
	Short: "Insert coverage recording into contracts implemented against vm.Env",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("file", "", "Go file to instrument in place")
	rootCmd.Flags().String("out", "corpus", "directory receiving metadata.json")
	_ = rootCmd.MarkFlagRequired("file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	path, _ := cmd.Flags().GetString("file")
	out, _ := cmd.Flags().GetString("out")
	log.Info("instrumenting", zap.String("file", path))

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	code, vars, err := instrument(src, path)
	if err != nil {
		return fmt.Errorf("instrument %s: %w", path, err)
	}
	if err := os.WriteFile(path, code, 0o644); err != nil {
		return err
	}
	if err := saveMetadata(out, vars); err != nil {
		return err
	}
	log.Info("instrumentation complete", zap.Int("sites", len(vars)))
	return nil
}

func saveMetadata(dir string, vars map[string]VarInfo) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	columns := make([]string, 0, len(vars))
	for cid := range vars {
		columns = append(columns, cid)
	}
	sort.Strings(columns)

	data, err := json.MarshalIndent(Metadata{Columns: columns, Details: vars}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644)
}
