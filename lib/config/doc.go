// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for parc.
//
// Configuration is loaded from a single file specified by either the
// PARC_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Unknown keys are errors, so a typo in
// a setting fails loudly instead of silently falling back to the
// default.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variable overrides a config value.
//
// Key exports:
//
//   - [Config] -- the settings for `parc create` and friends
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [ThreadCount] and [ByteSize] -- YAML-friendly scalar types that
//     also parse command line flag values
package config
