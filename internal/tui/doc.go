// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live job board for a running batch. Each job is a
// row showing its status, elapsed time and the last line it wrote; failed jobs
// show their error and the log to read.
//
// The board is fed by progress events and never blocks the workers that
// produce them. Closing it returns the terminal but leaves the batch running.
package tui
