// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"fmt"
	"regexp"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"

	"github.com/Masterminds/squirrel"
)

// ConnectivityQuery is the trivial statement used by connectivity and liveness probes.
const ConnectivityQuery = "SELECT 1"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// BuildProbeQuery returns the query performance probe. With a table it reads at most one
// row from it, otherwise it asks the server for its clock.
func BuildProbeQuery(table string) (string, error) {
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	if table == "" {
		query, _, err := builder.Select("current_timestamp").ToSql()
		return query, err
	}

	if !identifierPattern.MatchString(table) {
		return "", pkg.ValidateBusinessError(constant.ErrInvalidConfig, "probeTable", fmt.Sprintf("%q is not a valid table identifier", table))
	}

	query, _, err := builder.Select("1").From(table).Limit(1).ToSql()

	return query, err
}
