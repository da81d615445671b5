// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config builds the immutable global configuration of a batch run.
//
// Settings come from layers, lowest precedence first: an optional
// configuration file (YAML here, HCL in the hcl subpackage) and the command
// line. Only values given explicitly in a layer count as set; defaults of the
// external program are never global values.
package config
