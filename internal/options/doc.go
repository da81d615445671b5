// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package options describes the options an external program accepts.
//
// Every option has a Category, deciding where it may be set, and a Kind,
// deciding how its value becomes argument tokens. Values are typed and
// immutable once built; a Values set only ever contains options that were
// given explicitly.
package options
