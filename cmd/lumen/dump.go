package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/driver"
	"lumen/internal/source"
	"lumen/internal/tir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <bundle.lub> [decl]",
	Short: "Print the typed IR of analyzed declarations",
	Long:  `Dump analyzes a bundle and prints the typed instruction stream of every declaration, or of the single named declaration`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("values", false, "print compile-time values instead of instruction bodies")
}

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]
	onlyDecl := ""
	if len(args) == 2 {
		onlyDecl = args[1]
	}
	showValues, err := cmd.Flags().GetBool("values")
	if err != nil {
		return fmt.Errorf("failed to get values flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	startDir := filepath.Dir(path)
	profile, err := resolveProfile(cmd, startDir, true)
	if err != nil {
		return err
	}

	fileSet := source.NewFileSetWithBase(startDir)
	loader := driver.NewLoader(startDir)
	res, reg, err := driver.AnalyzeUnit(fileSet, loader, path, profile)
	if err != nil {
		return err
	}
	if res.Bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, res.Bag, fileSet, diagfmt.PrettyOpts{
			Color:       useColor(colorMode, os.Stderr),
			ShowPreview: true,
		})
	}
	if reg == nil {
		cmd.SilenceUsage = true
		return fmt.Errorf("bundle could not be decoded")
	}

	names := reg.DeclNames(res.FileID)
	if onlyDecl != "" {
		if _, ok := reg.Lookup(res.FileID, onlyDecl); !ok {
			return fmt.Errorf("no declaration %q in %s", onlyDecl, path)
		}
		names = []string{onlyDecl}
	}

	for _, name := range names {
		id, _ := reg.Lookup(res.FileID, name)
		typ, val := reg.TypedValueOf(id)
		fmt.Printf("decl %s: %s\n", name, reg.Types().String(typ))
		if showValues || val != nil {
			if val != nil {
				fmt.Printf("  = %s\n", val.String(reg.Types()))
			}
			continue
		}
		body := reg.AnalyzedBody(id)
		if len(body) == 0 {
			fmt.Println("  <no body>")
			continue
		}
		if err := tir.DumpBody(os.Stdout, body, reg.Types()); err != nil {
			return err
		}
	}

	if res.Bag.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("analysis reported errors")
	}
	return nil
}
