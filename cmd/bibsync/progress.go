package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/matsen/bibsync/internal/match"
)

var stageLabels = map[match.Stage]string{
	match.StageSearch: "Matching entries to DBLP",
	match.StageRecord: "Retrieving DBLP records",
}

// terminalProgress draws one bar per pass. It satisfies reconcile.Progress.
type terminalProgress struct {
	pw      progress.Writer
	tracker *progress.Tracker
}

func newTerminalProgress(w io.Writer) *terminalProgress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Value = true

	go pw.Render()
	return &terminalProgress{pw: pw}
}

func (p *terminalProgress) Start(stage match.Stage, total int) {
	p.tracker = &progress.Tracker{
		Message: stageLabels[stage],
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	p.pw.AppendTracker(p.tracker)
}

func (p *terminalProgress) Advance(string, match.Outcome) {
	if p.tracker != nil {
		p.tracker.Increment(1)
	}
}

func (p *terminalProgress) Finish(match.Stage) {
	if p.tracker != nil {
		p.tracker.MarkAsDone()
	}
}

// Stop ends rendering and waits for the final frame.
func (p *terminalProgress) Stop() {
	p.pw.Stop()
	for p.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
