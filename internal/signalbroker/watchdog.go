// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/dmsbatch/internal/ctxlog"
)

// Watch consumes sigCh until it is closed or ctx is done.
// The first signal of a type is only logged; the second calls stopDispatch.
func Watch(ctx context.Context, sigCh <-chan os.Signal, stopDispatch context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "second signal received, no further jobs will be started",
					"signal", sig.String())
				stopDispatch()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Warn(ctx, "signal received, running jobs will finish; send again to stop starting queued jobs",
				"signal", sig.String())
		}
	}
}
