// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger prints to the console through PrettyHandler. A batch run
// additionally opens a BatchLog, which fans every record out to the console
// and to the batch log file on disk.
//
// The console level is read from <EXECUTABLE>_LOG_LEVEL, e.g. DMSBATCH_LOG_LEVEL,
// and may be DEBUG, INFO, WARN or ERROR. Anything else means INFO.
package ctxlog
