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

// package paranoid reads a line-delimited id list naming packages
// that must be forced into the reducer's SR state
// because a same-name sibling is already installed.
package paranoid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	kcudferror "github.com/rancher/kcudf/pkg/error"
)

// ReadSeeds parses one integer id per non-empty, non-comment line.
// Validation that each id actually names a Concrete node happens in
// the reducer (it is the only place that has the graph to check
// against); this function only owns the line grammar.
func ReadSeeds(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	var ids []int
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			return nil, kcudferror.New(fmt.Sprintf("paranoid seed file line %d: %q is not an integer id", lineNo, line), kcudferror.InvalidParanoidSeed)
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	return ids, nil
}
