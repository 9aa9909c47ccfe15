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

package reduce_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/kcudf/pkg/kcudf/reduce"
	"github.com/rancher/kcudf/pkg/types"
)

// fakeGraph is a hand-built adjacency fixture satisfying reduce.Graph,
// standing in for both translate.TriGraph and codec.WireGraph so the
// reducer's fixed point can be exercised without either.
type fakeGraph struct {
	concrete  []bool
	keep      []bool
	install   []bool
	deps      [][]int
	dependers [][]int
	conflicts [][]int
	provides  [][]int
	providers [][]int
}

func (g *fakeGraph) newNode(concrete, keep, install bool) int {
	id := len(g.concrete)
	g.concrete = append(g.concrete, concrete)
	g.keep = append(g.keep, keep)
	g.install = append(g.install, install)
	g.deps = append(g.deps, nil)
	g.dependers = append(g.dependers, nil)
	g.conflicts = append(g.conflicts, nil)
	g.provides = append(g.provides, nil)
	g.providers = append(g.providers, nil)
	return id
}

func (g *fakeGraph) newConcrete(keep, install bool) int   { return g.newNode(true, keep, install) }
func (g *fakeGraph) newDisjunction(keep, install bool) int { return g.newNode(false, keep, install) }

func (g *fakeGraph) addDep(a, b int) {
	g.deps[a] = append(g.deps[a], b)
	g.dependers[b] = append(g.dependers[b], a)
}

func (g *fakeGraph) addConflict(a, b int) {
	g.conflicts[a] = append(g.conflicts[a], b)
	g.conflicts[b] = append(g.conflicts[b], a)
}

func (g *fakeGraph) addProvider(disj, provider int) {
	g.providers[disj] = append(g.providers[disj], provider)
	g.provides[provider] = append(g.provides[provider], disj)
}

func (g *fakeGraph) AllIDs() []int {
	ids := make([]int, len(g.concrete))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (g *fakeGraph) Dependencies(id int) []int { return g.deps[id] }
func (g *fakeGraph) Dependers(id int) []int    { return g.dependers[id] }
func (g *fakeGraph) Conflicts(id int) []int    { return g.conflicts[id] }
func (g *fakeGraph) Provides(id int) []int     { return g.provides[id] }
func (g *fakeGraph) Providers(id int) []int    { return g.providers[id] }
func (g *fakeGraph) IsKept(id int) bool        { return g.keep[id] }
func (g *fakeGraph) WantInstall(id int) bool   { return g.install[id] }
func (g *fakeGraph) IsConcrete(id int) bool    { return g.concrete[id] }
func (g *fakeGraph) Resolve(id int) int        { return id }

func (g *fakeGraph) AddDep(a, b int) { g.addDep(a, b) }
func (g *fakeGraph) HasDep(a, b int) bool {
	for _, d := range g.deps[a] {
		if d == b {
			return true
		}
	}
	return false
}

var _ = Describe("Reducer", func() {
	var log types.Logger

	BeforeEach(func() {
		log = types.NewNullLogger()
	})

	It("reports SOL for a lone Must-install package with nothing left undecided", func() {
		g := &fakeGraph{}
		a := g.newConcrete(true, true) // seeds MI

		r := reduce.New(g, log)
		outcome, err := r.Run(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(reduce.SOL))
		Expect(r.State(a)).To(Equal(reduce.MI))
		Expect(r.SearchIDs()).To(BeEmpty())
	})

	It("reports FAIL when two Must-install packages conflict", func() {
		g := &fakeGraph{}
		a := g.newConcrete(true, true) // MI
		b := g.newConcrete(true, true) // MI
		g.addConflict(a, b)

		r := reduce.New(g, log)
		outcome, err := r.Run(nil)
		Expect(err).To(HaveOccurred())
		Expect(outcome).To(Equal(reduce.FAIL))
	})

	It("leaves an unresolved disjunctive dependency in the search slice", func() {
		g := &fakeGraph{}
		x := g.newConcrete(true, true) // MI
		d := g.newDisjunction(false, false)
		a := g.newConcrete(false, false) // CU
		b := g.newConcrete(false, false) // CU
		g.addDep(x, d)
		g.addProvider(d, a)
		g.addProvider(d, b)

		r := reduce.New(g, log)
		outcome, err := r.Run(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(reduce.SEARCH))

		Expect(r.State(x)).To(Equal(reduce.MI))
		Expect(r.State(d)).To(Equal(reduce.MI))
		Expect(r.SP(d)).To(Equal(0))

		search := r.SearchIDs()
		Expect(search).To(ContainElement(d))
		Expect(search).To(ContainElement(a))
		Expect(search).To(ContainElement(b))
	})

	It("unit-propagates a dependency edge when only one candidate provider remains", func() {
		g := &fakeGraph{}
		x := g.newConcrete(true, true) // MI
		d := g.newDisjunction(false, false)
		a := g.newConcrete(true, false) // MU: the only real candidate left is b
		b := g.newConcrete(false, false)
		g.addDep(x, d)
		g.addProvider(d, a)
		g.addProvider(d, b)

		r := reduce.New(g, log)
		_, err := r.Run(nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(g.HasDep(d, b)).To(BeTrue())
	})

	It("rejects a paranoid seed that does not resolve to a Concrete", func() {
		g := &fakeGraph{}
		d := g.newDisjunction(false, false)

		r := reduce.New(g, log)
		_, err := r.Run([]int{d})
		Expect(err).To(HaveOccurred())
	})
})
