// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package batchrun drives one batch from configuration to summary artifacts.
//
// Prepare does every check that needs no files: it parses the batch table,
// composes each job's invocation and resolves the worker count. A failure
// there creates nothing. Run then walks the state machine
//
//	Init -> Checking -> Running -> Validating -> Aggregating -> Done
//
// and moves to Failed on the first error from Running onwards. Entering
// Running and entering Failed both delete every summary artifact except the
// batch log, so a failed run never leaves a partial summary behind. Per-job
// logs and outputs are never deleted.
package batchrun
