// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package quote

import "errors"

var (
	// ErrPartialSuccess means exactly one of the two metals was fetched. The
	// lone quote is discarded.
	ErrPartialSuccess = errors.New("partial success: only one metal fetched")
	// ErrNoCacheAvailable is the only error GetQuote returns: the refresh
	// failed and there is no usable cached document to fall back on.
	ErrNoCacheAvailable = errors.New("no cache available")
)
