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

// WireGraph reconstructs the reduce.Graph surface from a parsed Doc,
// for the stand-alone "reducer" binary that never links against the
// translator's in-memory arena. A node is Concrete iff it appears at
// least once as the source of an "R" statement: every Concrete gets an
// explicit self-provide "R id id" at write time, while flattened
// Disjunctions never appear as an R source, so that alone is enough
// to recover the distinction the paranoid check needs.
type WireGraph struct {
	n        int
	keep     map[int]bool
	install  map[int]bool
	deps     map[int]map[int]bool
	dependers map[int]map[int]bool
	conflicts map[int]map[int]bool
	provides map[int]map[int]bool
	providers map[int]map[int]bool
	concrete map[int]bool
}

func LoadWireGraph(doc *Doc) *WireGraph {
	g := &WireGraph{
		keep:      map[int]bool{},
		install:   map[int]bool{},
		deps:      map[int]map[int]bool{},
		dependers: map[int]map[int]bool{},
		conflicts: map[int]map[int]bool{},
		provides:  map[int]map[int]bool{},
		providers: map[int]map[int]bool{},
		concrete:  map[int]bool{},
	}
	for _, st := range doc.Statements {
		switch st.Kind {
		case "P":
			g.keep[st.ID1] = st.Keep
			g.install[st.ID1] = st.Inst
			if st.ID1+1 > g.n {
				g.n = st.ID1 + 1
			}
		case "D":
			g.addEdge(g.deps, st.ID1, st.ID2)
			g.addEdge(g.dependers, st.ID2, st.ID1)
		case "C":
			g.addEdge(g.conflicts, st.ID1, st.ID2)
			g.addEdge(g.conflicts, st.ID2, st.ID1)
		case "R":
			// A Concrete's self-provide ("R id id") only marks id as
			// Concrete; it is not loaded as a provides/providers edge,
			// matching the in-memory graph.Store where a Concrete's own
			// Provides()/Providers() stay empty by construction.
			if st.ID1 != st.ID2 {
				g.addEdge(g.provides, st.ID1, st.ID2)
				g.addEdge(g.providers, st.ID2, st.ID1)
			}
			g.concrete[st.ID1] = true
		}
	}
	return g
}

func (g *WireGraph) addEdge(m map[int]map[int]bool, a, b int) {
	if m[a] == nil {
		m[a] = map[int]bool{}
	}
	m[a][b] = true
}

func toSlice(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func (g *WireGraph) AllIDs() []int {
	out := make([]int, g.n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *WireGraph) Dependencies(id int) []int { return toSlice(g.deps[id]) }
func (g *WireGraph) Dependers(id int) []int    { return toSlice(g.dependers[id]) }
func (g *WireGraph) Conflicts(id int) []int    { return toSlice(g.conflicts[id]) }
func (g *WireGraph) Provides(id int) []int     { return toSlice(g.provides[id]) }
func (g *WireGraph) Providers(id int) []int    { return toSlice(g.providers[id]) }
func (g *WireGraph) IsKept(id int) bool        { return g.keep[id] }
func (g *WireGraph) WantInstall(id int) bool   { return g.install[id] }
func (g *WireGraph) IsConcrete(id int) bool    { return g.concrete[id] }

// Resolve is the identity: a loaded KCUDF has no forwarding left, every
// id in it is already canonical.
func (g *WireGraph) Resolve(id int) int { return id }

func (g *WireGraph) AddDep(a, b int) {
	g.addEdge(g.deps, a, b)
	g.addEdge(g.dependers, b, a)
}

func (g *WireGraph) HasDep(a, b int) bool { return g.deps[a][b] }
