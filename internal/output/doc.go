// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output provides sorting, projection and emission utilities used by
// commands to present results as text tables, JSON or YAML.
package output
