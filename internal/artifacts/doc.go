// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package artifacts produces the summary artifacts of a batch from the
// per-job output tables. Each artifact is one step of a serial batch; the
// steps run in a fixed order and the first failure stops the rest.
package artifacts
