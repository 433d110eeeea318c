// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"net/url"
	"strings"

	"github.com/LerianStudio/dbguard/pkg/constant"
)

// sensitiveParams are query keys masked in DSNs and webhook URLs.
var sensitiveParams = map[string]struct{}{
	"password":     {},
	"sslpassword":  {},
	"token":        {},
	"access_token": {},
	"secret":       {},
	"key":          {},
	"api_key":      {},
	"signature":    {},
	"sig":          {},
}

// RedactConnectionString masks the userinfo and credential-bearing query parameters of a
// database DSN, broker URL or webhook URL before it is logged. Returns "[invalid-uri]" if
// parsing fails.
func RedactConnectionString(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "[invalid-uri]"
	}

	if u.User != nil {
		u.User = url.UserPassword(constant.RedactPlaceholder, constant.RedactPlaceholder)
	}

	if u.RawQuery == "" {
		return u.String()
	}

	q := u.Query()
	masked := false

	for k := range q {
		if _, ok := sensitiveParams[strings.ToLower(k)]; ok {
			q.Set(k, constant.RedactPlaceholder)

			masked = true
		}
	}

	if masked {
		u.RawQuery = q.Encode()
	}

	return u.String()
}
