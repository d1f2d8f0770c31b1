package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescAuditing = "Auditing"
	DescLoading  = "Loading"
)

// NewProgressBar creates a consistently styled progress bar writing to w.
//
// Use a negative total for an unknown number of items; the bar then renders
// as a spinner. Known totals show the count and iterations per second.
//
// Example:
//
//	bar := utils.NewProgressBar(len(keys), utils.DescAuditing, os.Stderr)
//	defer bar.Finish()
func NewProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
