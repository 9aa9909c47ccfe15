/*
Copyright © 2022 - 2026 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// package version compares CUDF version strings, which are usually
// plain non-negative integers but occasionally dot-separated semver-like
// strings. It mirrors the shape of luet's Versioner interface but is
// scoped to the two relations the translator actually needs: ordering
// and equality.
package version

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare returns -1, 0, 1 as a is less than, equal to, or greater than
// b. It tries semver first (CUDF versions are occasionally dotted), and
// falls back to comparing them as plain integers, and finally to a raw
// string comparison, matching the layered fallback of luet's
// WrappedVersioner.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	if sa, err := semver.NewVersion(a); err == nil {
		if sb, err := semver.NewVersion(b); err == nil {
			return sa.Compare(sb)
		}
	}

	if ia, err := strconv.Atoi(a); err == nil {
		if ib, err := strconv.Atoi(b); err == nil {
			switch {
			case ia < ib:
				return -1
			case ia > ib:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(a, b)
}

// Satisfies reports whether version v satisfies the relational operator
// op against the reference version ref.
func Satisfies(v, op, ref string) bool {
	c := Compare(v, ref)
	switch op {
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	default:
		return false
	}
}
