// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for casement.
//
// Configuration is loaded from a single file specified by either the
// CASEMENT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Development defaults to debug logging
// when no explicit development section is present.
//
// Variable expansion is performed on address fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Listen, Log, Metrics, Session,
//     Screen, Input, and Scene sections
//   - [Default] -- returns a Config with development defaults and the
//     demo scene
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other casement packages.
package config
