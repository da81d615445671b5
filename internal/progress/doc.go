// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the worker pool to
// whoever is watching: the live job board, or nobody.
package progress
