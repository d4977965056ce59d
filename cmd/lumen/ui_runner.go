package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"lumen/internal/driver"
	"lumen/internal/source"
	"lumen/internal/ui"
)

type analyzeOutcome struct {
	fileSet *source.FileSet
	results []driver.UnitResult
	err     error
}

// runAnalyzeDirWithUI runs AnalyzeDir in the background while a Bubble
// Tea program renders its progress events.
func runAnalyzeDirWithUI(ctx context.Context, dir string, opts driver.AnalyzeDirOptions) (*source.FileSet, []driver.UnitResult, error) {
	units, err := driver.ListBundles(dir)
	if err != nil {
		return nil, nil, err
	}
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Events = events
		fileSet, results, err := driver.AnalyzeDir(ctx, dir, optsCopy)
		outcomeCh <- analyzeOutcome{fileSet: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("analyzing "+dir, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
