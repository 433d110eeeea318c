// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package db

import (
	"fmt"
	"reflect"
)

// StaticRow is a Row backed by fixed values or a fixed error. It is useful for
// probe fakes and tests.
type StaticRow struct {
	Values []any
	Err    error
}

// Scan copies Values into dest by position.
func (r StaticRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}

	if len(dest) != len(r.Values) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(r.Values), len(dest))
	}

	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan: destination %d is not a non-nil pointer", i)
		}

		if r.Values[i] == nil {
			dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
			continue
		}

		sv := reflect.ValueOf(r.Values[i])
		if !sv.Type().AssignableTo(dv.Elem().Type()) {
			if !sv.Type().ConvertibleTo(dv.Elem().Type()) {
				return fmt.Errorf("scan: cannot assign %T to destination %d", r.Values[i], i)
			}

			sv = sv.Convert(dv.Elem().Type())
		}

		dv.Elem().Set(sv)
	}

	return nil
}
