package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lumen/internal/diag"
	"lumen/internal/diagfmt"
	"lumen/internal/driver"
	"lumen/internal/observ"
	"lumen/internal/project"
	"lumen/internal/source"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <bundle.lub|directory>",
	Short: "Analyze instruction bundles and report diagnostics",
	Long:  `Analyze type-checks every declaration in the given bundle, or in all *.lub bundles under a directory, and prints the resulting diagnostics`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	analyzeCmd.Flags().String("safety", "", "override the manifest safety mode (on|off)")
	analyzeCmd.Flags().Uint32("branch-quota", 0, "override the compile-time branch quota (0=manifest)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	analyzeCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
	analyzeCmd.Flags().Bool("disk-cache", false, "skip unchanged clean bundles using the persistent cache")
	analyzeCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	analyzeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	useDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	startDir := path
	if !info.IsDir() {
		startDir = filepath.Dir(path)
	}

	profile, err := resolveProfile(cmd, startDir, quiet)
	if err != nil {
		return err
	}

	var cache *driver.DiskCache
	if useDiskCache {
		cache, err = driver.OpenDiskCache("lumen")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
	}

	timer := observ.NewTimer()
	endAnalyze := timer.Begin(observ.PhaseAnalyze)

	var fileSet *source.FileSet
	var results []driver.UnitResult
	ctx := context.Background()

	if info.IsDir() {
		opts := driver.AnalyzeDirOptions{Profile: profile, Jobs: jobs, Cache: cache}
		if format == "pretty" && !quiet && shouldUseTUI(mode) {
			fileSet, results, err = runAnalyzeDirWithUI(ctx, path, opts)
		} else {
			fileSet, results, err = driver.AnalyzeDir(ctx, path, opts)
		}
		if err != nil {
			return err
		}
	} else {
		fileSet = source.NewFileSetWithBase(startDir)
		loader := driver.NewLoader(startDir)
		res, _, err := driver.AnalyzeUnit(fileSet, loader, path, profile)
		if err != nil {
			return err
		}
		results = []driver.UnitResult{res}
	}
	endAnalyze(fmt.Sprintf("%d units", len(results)))

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	endRender := timer.Begin(observ.PhaseRender)
	hasErrors := false
	switch format {
	case "json":
		total := diag.NewBag(profile.MaxDiagnostics)
		for _, res := range results {
			total.Merge(res.Bag)
			if res.Bag.HasErrors() {
				hasErrors = true
			}
		}
		total.Sort()
		if err := diagfmt.JSON(os.Stdout, total, fileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}); err != nil {
			return err
		}
	default:
		popts := diagfmt.PrettyOpts{
			Color:       useColor(colorMode, os.Stdout),
			PathMode:    pathMode,
			ShowNotes:   withNotes,
			ShowPreview: true,
		}
		decls := 0
		for _, res := range results {
			diagfmt.Pretty(os.Stdout, res.Bag, fileSet, popts)
			printCompileLogs(res, quiet)
			if res.Bag.HasErrors() {
				hasErrors = true
			}
			decls += res.Decls
		}
		if !quiet {
			fmt.Printf("analyzed %d units, %d declarations\n", len(results), decls)
		}
	}
	endRender("")

	if showTimings && format != "json" {
		fmt.Fprint(os.Stderr, timer.Summary())
	}

	if hasErrors {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("analysis reported errors")
	}
	return nil
}

// resolveProfile loads the nearest lumen.toml and applies CLI overrides
// on top of it.
func resolveProfile(cmd *cobra.Command, startDir string, quiet bool) (project.BuildProfile, error) {
	profile := project.DefaultBuildProfile()
	manifest, ok, err := project.LoadNearestManifest(startDir)
	if err != nil {
		return profile, err
	}
	if ok {
		profile = manifest.Build
		if !quiet {
			for _, w := range manifest.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s: %s\n", manifest.Path, w)
			}
		}
	}

	if cmd.Flags().Changed("safety") {
		val, err := cmd.Flags().GetString("safety")
		if err != nil {
			return profile, err
		}
		modeVal, err := project.ParseSafetyMode(val)
		if err != nil {
			return profile, err
		}
		profile.Safety = modeVal
	}
	if cmd.Flags().Changed("branch-quota") {
		quota, err := cmd.Flags().GetUint32("branch-quota")
		if err != nil {
			return profile, err
		}
		if quota > 0 {
			profile.BranchQuota = quota
		}
	}
	if cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		if err != nil {
			return profile, err
		}
		if maxDiag > 0 {
			profile.MaxDiagnostics = maxDiag
		}
	}
	return profile, nil
}

func printCompileLogs(res driver.UnitResult, quiet bool) {
	if quiet || len(res.Logs) == 0 {
		return
	}
	fmt.Printf("compile log (%s):\n", filepath.Base(res.Path))
	for _, line := range res.Logs {
		fmt.Printf("  %s\n", line)
	}
}
