package archive

import (
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProgressReporter is called to provide update on archiving individual files.
//
//   - src: path of the file being added to the archive
//   - dst: name of the file in the archive
//   - written: number of bytes of the file that has been written to archive so far
//   - done: is true only when the file has been written in its entirety
//
// CreateArchive calls the reporter exactly once per regular file, with done being true. Reporters are called on the
// goroutine that is writing the archive and should return quickly.
type ProgressReporter func(src, dst string, written int64, done bool)

// LogProgressReporter returns a ProgressReporter that keeps a running tally of archived files and bytes, and logs it
// at info level at most once per interval.
//
// Every log entry has the fields "files", "bytes" (humanized), and "last" (the name of the most recently archived
// file). The first completed file is always logged.
func LogProgressReporter(logger *zap.Logger, interval time.Duration) ProgressReporter {
	sometimes := rate.Sometimes{Interval: interval, First: 1}

	var n int
	var total int64

	return func(src, dst string, written int64, done bool) {
		if !done {
			return
		}

		n++
		total += written

		sometimes.Do(func() {
			logger.Info("archiving",
				zap.Int("files", n),
				zap.String("bytes", humanize.Bytes(uint64(total))),
				zap.String("last", dst))
		})
	}
}
