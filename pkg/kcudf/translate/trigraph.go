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

package translate

import "github.com/rancher/kcudf/pkg/kcudf/graph"

// TriGraph is a read-only view over a translated *graph.Store: the
// five per-node relations the reducer walks. It adds no state of its
// own - dependencies()/conflicts()/provides() are direct reads off the
// Node the store already maintains, and providers()/dependers() are the
// dual adjacency sets AddProvider/AddDep populate as they are added, so
// no reverse index needs building here.
type TriGraph struct {
	store *graph.Store
}

func NewTriGraph(store *graph.Store) *TriGraph {
	return &TriGraph{store: store}
}

func (g *TriGraph) node(id int) *graph.Node {
	return g.store.Node(g.store.Chase(id))
}

// Dependencies returns the ids p depends on (deps must all end up
// installed for p to be installed).
func (g *TriGraph) Dependencies(p int) []int { return g.node(p).Deps() }

// Dependers returns the ids that depend on p (reverse of Dependencies).
func (g *TriGraph) Dependers(p int) []int { return g.node(p).Dependers() }

// Conflicts returns the ids p cannot coexist installed with.
func (g *TriGraph) Conflicts(p int) []int { return g.node(p).Conflicts() }

// Provides returns the Disjunctions that count p as one of their
// alternatives.
func (g *TriGraph) Provides(p int) []int { return g.node(p).Provides() }

// Providers returns the alternatives of Disjunction p.
func (g *TriGraph) Providers(p int) []int { return g.node(p).Providers() }

// Kind, Installed, Install, Keep and Version are exposed directly since
// the reducer's state seeding reads them once per node up front.
func (g *TriGraph) Kind(p int) graph.Kind    { return g.node(p).Kind }
func (g *TriGraph) IsConcrete(p int) bool    { return g.node(p).Kind == graph.Concrete }
func (g *TriGraph) Installed(p int) bool     { return g.node(p).Installed }
func (g *TriGraph) WantInstall(p int) bool   { return g.node(p).Install }
func (g *TriGraph) IsKept(p int) bool        { return g.node(p).Keep }
func (g *TriGraph) Name(p int) string        { return g.node(p).Name }

func (g *TriGraph) Version(p int) (string, bool) { return g.store.GetVersion(p) }

func (g *TriGraph) AllIDs() []int { return g.store.AllIDs() }

func (g *TriGraph) Resolve(id int) int { return g.store.Chase(id) }

// AddDep and HasDep expose the one adjacency mutation the reducer
// performs at runtime, during unit-propagation in PK_UCP.
func (g *TriGraph) AddDep(a, b int)     { g.store.AddDep(a, b) }
func (g *TriGraph) HasDep(a, b int) bool { return g.store.HasDep(a, b) }
