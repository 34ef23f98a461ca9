// Copyright (c) 2025 Steve Taranto staranto@gmail.com.
// SPDX-License-Identifier: Apache-2.0

// Package backend selects the persistence layer for the price cache: a local
// file, an S3 object, a sqlite row, or process memory.
package backend
