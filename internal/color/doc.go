// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes for console log output.
// Colour is decided once at start-up: NO_COLOR wins, then FORCE_COLOR,
// otherwise colour is used only when stdout is a terminal.
package color
