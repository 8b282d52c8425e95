package offline

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives scan progress. Add is called once per drained chunk with the
// chunk's byte size and Finish once after the trailing chunk.
type Reporter interface {
	Add(bytes int64)
	Finish()
}

type nopReporter struct{}

func (nopReporter) Add(int64) {}
func (nopReporter) Finish()   {}

// BarReporter renders progress as a terminal progress bar.
type BarReporter struct {
	bar *progressbar.ProgressBar
}

// NewBarReporter creates a byte based progress bar of total bytes writing to w.
func NewBarReporter(description string, total int64, w io.Writer) *BarReporter {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
	return &BarReporter{bar: bar}
}

func (b *BarReporter) Add(bytes int64) {
	_ = b.bar.Add64(bytes)
}

func (b *BarReporter) Finish() {
	_ = b.bar.Finish()
}

// Tracker counts scanned bytes so another goroutine, like the status shortcut,
// can read the progress while a scan is running. It forwards to an optional Reporter.
type Tracker struct {
	next   Reporter
	total  atomic.Int64
	done   atomic.Int64
	chunks atomic.Int64
}

// NewTracker wraps next, which may be nil.
func NewTracker(next Reporter) *Tracker {
	if next == nil {
		next = nopReporter{}
	}
	return &Tracker{next: next}
}

// Expect adds bytes to the expected total, once per corpus file.
func (t *Tracker) Expect(bytes int64) {
	t.total.Add(bytes)
}

func (t *Tracker) Add(bytes int64) {
	t.done.Add(bytes)
	t.chunks.Add(1)
	t.next.Add(bytes)
}

func (t *Tracker) Finish() {
	t.next.Finish()
}

// Done returns the bytes of all drained chunks so far.
func (t *Tracker) Done() int64 {
	return t.done.Load()
}

// Total returns the expected byte total.
func (t *Tracker) Total() int64 {
	return t.total.Load()
}

// Chunks returns the number of drained chunks so far.
func (t *Tracker) Chunks() int64 {
	return t.chunks.Load()
}
