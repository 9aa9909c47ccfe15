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

package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	kcudferror "github.com/rancher/kcudf/pkg/error"
)

// Reader parses the KCUDF line grammar from an underlying io.Reader.
type Reader struct {
	src *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{src: s}
}

// ReadAll consumes the whole stream and returns the parsed Doc. Every
// "P" line has a self-dep synthesized (id -> id); every "R" line has
// its implied dep (id1 -> id2) synthesized alongside it.
func ReadAll(r io.Reader) (*Doc, error) {
	rd := NewReader(r)
	doc := &Doc{}
	lineNo := 0
	for rd.src.Scan() {
		lineNo++
		line := rd.src.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		st, err := parseLine(lineNo, trimmed)
		if err != nil {
			return nil, err
		}
		doc.Statements = append(doc.Statements, st)
		switch st.Kind {
		case "P":
			doc.Statements = append(doc.Statements, Statement{Kind: "D", ID1: st.ID1, ID2: st.ID1})
		case "R":
			doc.Statements = append(doc.Statements, Statement{Kind: "D", ID1: st.ID1, ID2: st.ID2})
		}
	}
	if err := rd.src.Err(); err != nil {
		return nil, kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	return doc, nil
}

func parseLine(lineNo int, line string) (Statement, error) {
	desc := ""
	body := line
	if idx := strings.Index(line, "#"); idx >= 0 {
		body = strings.TrimSpace(line[:idx])
		desc = strings.TrimSpace(line[idx+1:])
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Statement{}, kcudferror.New(fmt.Sprintf("empty statement at line %d", lineNo), kcudferror.InvalidStatement)
	}

	switch fields[0] {
	case "P":
		if len(fields) < 4 {
			return Statement{}, invalidStatement(lineNo, line)
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return Statement{}, invalidStatement(lineNo, line)
		}
		return Statement{
			Kind: "P",
			ID1:  id,
			Keep: fields[2] == "K",
			Inst: fields[3] == "I",
			Desc: desc,
		}, nil
	case "D", "C", "R":
		if len(fields) < 3 {
			return Statement{}, invalidStatement(lineNo, line)
		}
		id1, err1 := strconv.Atoi(fields[1])
		id2, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			return Statement{}, invalidStatement(lineNo, line)
		}
		return Statement{Kind: fields[0], ID1: id1, ID2: id2, Desc: desc}, nil
	default:
		return Statement{}, invalidStatement(lineNo, line)
	}
}

func invalidStatement(lineNo int, text string) error {
	return kcudferror.New(fmt.Sprintf("invalid statement at line %d: %q", lineNo, text), kcudferror.InvalidStatement)
}

// ReadInfo parses the id/version/name sidecar.
func ReadInfo(r io.Reader) ([]Info, error) {
	scanner := bufio.NewScanner(r)
	var out []Info
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 {
			return nil, kcudferror.New(fmt.Sprintf("malformed info line %q", line), kcudferror.InvalidStatement)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, kcudferror.New(fmt.Sprintf("malformed info line %q", line), kcudferror.InvalidStatement)
		}
		out = append(out, Info{ID: id, Version: fields[1], Name: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	return out, nil
}
