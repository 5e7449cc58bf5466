package main

import (
	"io"
	"os"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// cliProgress renders one progress bar per library download. It
// implements catalog.ProgressTracker.
type cliProgress struct {
	p *mpb.Progress
}

func newCLIProgress() *cliProgress {
	info, _ := os.Stdout.Stat()
	tty := info != nil && info.Mode()&os.ModeCharDevice != 0
	return &cliProgress{
		p: mpb.New(mpb.WithOutput(os.Stdout), mpb.ContainerOptional(mpb.WithOutput(io.Discard), !tty)),
	}
}

func (c *cliProgress) TrackDownload(ref book.LibraryRef, totalBytes int64, body io.Reader) io.ReadCloser {
	name := ref.MachineName
	bar := c.p.AddBar(totalBytes,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 2, C: decor.DSyncWidthR}),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(decor.Percentage()),
		mpb.BarFillerClearOnComplete(),
	)
	return bar.ProxyReader(body)
}

// Wait blocks until every bar added so far has completed or aborted.
func (c *cliProgress) Wait() {
	c.p.Wait()
}
