// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs external programs and in-process steps, either one
// after another or on a bounded pool of workers.
//
// Runnables return Results rather than errors. A failing child never stops a
// ParallelBatch; every dispatched child runs to completion and the caller
// decides what the failures mean. A SerialBatch stops at the first failure and
// reports the remaining children as skipped.
package runbatch
