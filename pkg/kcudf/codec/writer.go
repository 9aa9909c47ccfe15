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
)

// PackageRecord is one "P" line's payload. The writer is deliberately
// graph-agnostic: callers (the translator/reducer command layer)
// resolve keep/install/providers into these plain records first, so
// this package never imports the graph or reduce packages.
type PackageRecord struct {
	ID      int
	Keep    bool
	Install bool
	Desc    string
}

// EdgeRecord is one "D"/"C"/"R" line's payload.
type EdgeRecord struct {
	A, B int
	Desc string
}

// Writer emits the canonical KCUDF text form.
type Writer struct {
	w     *bufio.Writer
	debug bool
}

func NewWriter(w io.Writer, debug bool) *Writer {
	return &Writer{w: bufio.NewWriter(w), debug: debug}
}

func kFlag(b bool) string {
	if b {
		return "K"
	}
	return "k"
}

func iFlag(b bool) string {
	if b {
		return "I"
	}
	return "i"
}

func (w *Writer) comment(desc string) string {
	if desc == "" {
		return ""
	}
	return " # " + desc
}

// WritePackage emits a single "P" line.
func (w *Writer) WritePackage(p PackageRecord) error {
	_, err := fmt.Fprintf(w.w, "P %d %s %s%s\n", p.ID, kFlag(p.Keep), iFlag(p.Install), w.comment(p.Desc))
	return err
}

// WriteDep emits a "D" line, silently dropping self-deps (id -> id):
// the reader synthesizes those from the "P" line, so writing them back
// out would only bloat the file.
func (w *Writer) WriteDep(e EdgeRecord) error {
	if e.A == e.B {
		return nil
	}
	_, err := fmt.Fprintf(w.w, "D %d %d%s\n", e.A, e.B, w.comment(e.Desc))
	return err
}

// WriteConflict emits a "C" line, normalized to the smaller id first
// since conflicts are logically undirected.
func (w *Writer) WriteConflict(e EdgeRecord) error {
	a, b := e.A, e.B
	if b < a {
		a, b = b, a
	}
	_, err := fmt.Fprintf(w.w, "C %d %d%s\n", a, b, w.comment(e.Desc))
	return err
}

// WriteProvides emits an "R" line (id1 provides id2). The reader
// synthesizes the implied dep edge on its own, so the writer does not
// duplicate it as a "D" line.
func (w *Writer) WriteProvides(e EdgeRecord) error {
	_, err := fmt.Fprintf(w.w, "R %d %d%s\n", e.A, e.B, w.comment(e.Desc))
	return err
}

func (w *Writer) WriteComment(text string) error {
	_, err := fmt.Fprintf(w.w, "# %s\n", text)
	return err
}

func (w *Writer) Flush() error { return w.w.Flush() }

// WriteInfo writes the id/version/name sidecar.
func WriteInfo(w io.Writer, infos []Info) error {
	bw := bufio.NewWriter(w)
	for _, info := range infos {
		if _, err := fmt.Fprintf(bw, "%d %s %s\n", info.ID, info.Version, info.Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}
