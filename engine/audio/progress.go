package audio

import (
	"github.com/schollz/progressbar/v3"
)

// Progress reports how many frames have been produced.
type Progress interface {
	// Add advances the progress by n frames.
	Add(n int)

	// Finish completes the report.
	Finish()
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a terminal progress bar sized for total frames.
// A negative total renders an indeterminate spinner.
//
// Parameters:
//   - total: the expected frame count, or -1 when unknown
//
// Returns:
//   - Progress: the progress reporter
func NewProgress(total int) Progress {
	return &barProgress{bar: progressbar.Default(int64(total), "playing")}
}

func (p *barProgress) Add(n int) {
	_ = p.bar.Add(n)
}

func (p *barProgress) Finish() {
	_ = p.bar.Finish()
}
