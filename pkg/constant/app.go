// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

const ApplicationName = "dbguard"

// DefaultVersion is reported by /version and the health snapshot when VERSION is not set.
const DefaultVersion = "1.0.0"

// RedactPlaceholder is the replacement value for masked credentials in connection strings.
const RedactPlaceholder = "REDACTED"

// DefaultServerAddress is used when SERVER_ADDRESS is not set.
const DefaultServerAddress = ":4010"
