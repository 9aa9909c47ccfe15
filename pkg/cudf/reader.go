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

package cudf

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var constraintRE = regexp.MustCompile(`^\s*([A-Za-z0-9_.+-]+)\s*(!=|>=|<=|=|<|>)?\s*([A-Za-z0-9_.+-]*)\s*$`)

// Read parses a CUDF document from r.
func Read(r io.Reader) (*Doc, error) {
	stanzas, err := splitStanzas(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading CUDF stream")
	}

	doc := &Doc{}
	for _, st := range stanzas {
		if _, ok := st["request"]; ok || hasAnyKey(st, "install", "remove", "upgrade") && !hasAnyKey(st, "package") {
			req, err := parseRequest(st)
			if err != nil {
				return nil, err
			}
			doc.Request = *req
			continue
		}
		pkg, err := parsePackage(st)
		if err != nil {
			return nil, err
		}
		doc.Packages = append(doc.Packages, pkg)
	}
	return doc, nil
}

func hasAnyKey(st map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := st[k]; ok {
			return true
		}
	}
	return false
}

// splitStanzas groups "key: value" lines into blank-line-delimited
// stanzas. Comment lines starting with '#' and blank lines outside a
// stanza are ignored.
func splitStanzas(r io.Reader) ([]map[string]string, error) {
	var stanzas []map[string]string
	current := map[string]string{}

	flush := func() {
		if len(current) > 0 {
			stanzas = append(stanzas, current)
			current = map[string]string{}
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, errors.Errorf("malformed CUDF line %q", line)
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		val := strings.TrimSpace(line[idx+1:])
		current[key] = val
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return stanzas, nil
}

func parsePackage(st map[string]string) (*Package, error) {
	p := &Package{
		Name:    st["package"],
		Version: st["version"],
	}
	if p.Name == "" || p.Version == "" {
		return nil, errors.Errorf("package stanza missing package/version: %+v", st)
	}
	p.Installed = strings.EqualFold(strings.TrimSpace(st["installed"]), "true")

	if raw, ok := st["depends"]; ok && raw != "" {
		formula, err := parseFormula(raw)
		if err != nil {
			return nil, err
		}
		p.Depends = formula
	}
	if raw, ok := st["conflicts"]; ok && raw != "" {
		list, err := parseVpkgList(raw)
		if err != nil {
			return nil, err
		}
		p.Conflicts = list
	}
	if raw, ok := st["provides"]; ok && raw != "" {
		list, err := parseVpkgList(raw)
		if err != nil {
			return nil, err
		}
		p.Provides = list
	}
	if raw, ok := st["keep"]; ok {
		p.Keep = KeepKind(strings.ToLower(strings.TrimSpace(raw)))
	}
	return p, nil
}

func parseRequest(st map[string]string) (*Request, error) {
	req := &Request{}
	if raw, ok := st["install"]; ok && raw != "" {
		list, err := parseVpkgList(raw)
		if err != nil {
			return nil, err
		}
		req.Install = list
	}
	if raw, ok := st["remove"]; ok && raw != "" {
		list, err := parseVpkgList(raw)
		if err != nil {
			return nil, err
		}
		req.Remove = list
	}
	if raw, ok := st["upgrade"]; ok && raw != "" {
		list, err := parseVpkgList(raw)
		if err != nil {
			return nil, err
		}
		req.Upgrade = list
	}
	return req, nil
}

// parseFormula parses a depends:-style field: comma-separated
// conjuncts, each a pipe-separated disjunction of constraints.
func parseFormula(raw string) (Formula, error) {
	var formula Formula
	for _, conj := range strings.Split(raw, ",") {
		conj = strings.TrimSpace(conj)
		if conj == "" {
			continue
		}
		var disj Disjunction
		for _, alt := range strings.Split(conj, "|") {
			c, err := parseConstraint(alt)
			if err != nil {
				return nil, err
			}
			disj = append(disj, c)
		}
		formula = append(formula, disj)
	}
	return formula, nil
}

// parseVpkgList parses a comma-separated flat list of constraints (no
// disjunction), the shape of conflicts:, provides:, and request fields.
func parseVpkgList(raw string) (VpkgList, error) {
	var list VpkgList
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		c, err := parseConstraint(item)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, nil
}

func parseConstraint(raw string) (Constraint, error) {
	m := constraintRE.FindStringSubmatch(raw)
	if m == nil {
		return Constraint{}, errors.Errorf("malformed constraint %q", raw)
	}
	name, op, version := m[1], m[2], m[3]
	if op == "" {
		return Constraint{Name: name, Op: OpNone}, nil
	}
	if version == "" {
		return Constraint{}, errors.Errorf("constraint %q has an operator but no version", raw)
	}
	return Constraint{Name: name, Op: RelOp(op), Version: version}, nil
}
