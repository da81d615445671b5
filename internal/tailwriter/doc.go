// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tailwriter provides an io.Writer that forwards everything to a
// destination while remembering the last complete line and optionally
// announcing each completed line. Job output goes to the job's log file; the
// last line is what the batch log and the job board show for that job.
package tailwriter
