package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/depthnoise/logging"
)

// SlowLogger starts a goroutine that warns every few seconds until the returned function is
// called or ctx is done.
func SlowLogger(
	ctx context.Context,
	clk clock.Clock,
	msg, fieldName, fieldVal string,
	logger logging.Logger,
) func() {
	slowTimer := clk.Timer(2 * time.Second)

	ctxWithCancel, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	startTime := clk.Now()
	go func() {
		defer close(done)
		firstTick := true
		for {
			select {
			case <-slowTimer.C:
				elapsed := clk.Since(startTime).Round(time.Second).String()
				if firstTick {
					slowTimer.Reset(3 * time.Second)
					firstTick = false
				} else {
					slowTimer.Reset(5 * time.Second)
				}
				logger.Warnw(msg, fieldName, fieldVal, "time_elapsed", elapsed)
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() {
		slowTimer.Stop()
		cancel()
		<-done
	}
}
