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

// package codec implements the line-oriented KCUDF wire format and
// its companion info sidecar.
package codec

// Statement is one parsed KCUDF line.
type Statement struct {
	Kind string // "P", "D", "C", "R"
	ID1  int
	ID2  int // unused for "P"
	Keep bool
	Inst bool
	Desc string
}

// Doc is a fully parsed KCUDF file: one Statement per P/D/C/R line, in
// file order, plus the self-dep the reader synthesizes for every P and
// the implied dep it synthesizes for every R.
type Doc struct {
	Statements []Statement
}

// Info maps an id to the (name, version) the translator's info sidecar
// recorded for it.
type Info struct {
	ID      int
	Version string
	Name    string
}
