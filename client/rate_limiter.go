package client

import (
	"context"
	"io"
	"sync"

	"golang.org/x/time/rate"
)

// downloadLimiter caps the combined bandwidth of image downloads. nil means unlimited.
var (
	downloadLimiter   *rate.Limiter
	downloadLimiterMu sync.RWMutex
)

// SetDownloadRateLimit caps image downloads at bytesPerSecond across all
// workers. Zero or negative removes the cap.
func SetDownloadRateLimit(bytesPerSecond int64) {
	downloadLimiterMu.Lock()
	defer downloadLimiterMu.Unlock()
	if bytesPerSecond <= 0 {
		downloadLimiter = nil
		return
	}
	if downloadLimiter == nil {
		downloadLimiter = rate.NewLimiter(rate.Limit(bytesPerSecond), int(bytesPerSecond))
		return
	}
	downloadLimiter.SetLimit(rate.Limit(bytesPerSecond))
	downloadLimiter.SetBurst(int(bytesPerSecond))
}

// DownloadRateLimit returns the current cap in bytes per second, 0 when unlimited.
func DownloadRateLimit() int64 {
	downloadLimiterMu.RLock()
	defer downloadLimiterMu.RUnlock()
	if downloadLimiter == nil {
		return 0
	}
	return int64(downloadLimiter.Limit())
}

type limitedReader struct {
	ctx   context.Context
	under io.Reader
	lim   *rate.Limiter
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if burst := lr.lim.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := lr.under.Read(p)
	if n > 0 {
		if werr := lr.lim.WaitN(lr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func wrapWithRateLimiter(ctx context.Context, r io.Reader) io.Reader {
	downloadLimiterMu.RLock()
	lim := downloadLimiter
	downloadLimiterMu.RUnlock()

	if lim == nil {
		return r
	}
	return &limitedReader{ctx: ctx, under: r, lim: lim}
}
