// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws contains aws-sdk-go-v2 helpers used by the S3 cache store.
package aws
