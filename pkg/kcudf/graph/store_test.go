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

package graph_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/kcudf/pkg/kcudf/graph"
)

var _ = Describe("Store", func() {
	var store *graph.Store

	BeforeEach(func() {
		store = graph.NewStore()
	})

	It("assigns dense sequential ids starting at 0", func() {
		a := store.NewConcrete("a", "1", false)
		b := store.NewConcrete("b", "1", false)
		Expect(a).To(Equal(0))
		Expect(b).To(Equal(1))
		Expect(store.Len()).To(Equal(2))
	})

	It("is idempotent for the same (name, version) pair", func() {
		a1 := store.NewConcrete("a", "1", false)
		a2 := store.NewConcrete("a", "1", true)
		Expect(a1).To(Equal(a2))
		// installed flag from the first call wins; NewConcrete never
		// mutates an existing node.
		Expect(store.Node(a1).Installed).To(BeFalse())
	})

	It("maintains dependers as the reverse of deps", func() {
		a := store.NewConcrete("a", "1", false)
		b := store.NewConcrete("b", "1", false)
		store.AddDep(a, b)
		Expect(store.Node(a).Deps()).To(ConsistOf(b))
		Expect(store.Node(b).Dependers()).To(ConsistOf(a))
	})

	It("maintains provides as the reverse of providers", func() {
		a := store.NewConcrete("a", "1", false)
		d := store.NewDisjunction("d")
		store.AddProvider(d, a)
		Expect(store.Node(d).Providers()).To(ConsistOf(a))
		Expect(store.Node(a).Provides()).To(ConsistOf(d))
	})

	It("stores conflicts symmetrically", func() {
		a := store.NewConcrete("a", "1", false)
		b := store.NewConcrete("b", "1", false)
		store.AddConflict(a, b)
		Expect(store.Node(a).Conflicts()).To(ConsistOf(b))
		Expect(store.Node(b).Conflicts()).To(ConsistOf(a))
	})

	It("chases a forward chain to its terminal id", func() {
		d1 := store.NewDisjunction("d1")
		d2 := store.NewDisjunction("d2")
		d3 := store.NewDisjunction("d3")
		store.Forward(d1, d2)
		store.Forward(d2, d3)
		Expect(store.Chase(d1)).To(Equal(d3))
	})

	It("panics on a self-forward", func() {
		d1 := store.NewDisjunction("d1")
		Expect(func() { store.Forward(d1, d1) }).To(Panic())
	})

	It("transfers deps and conflicts onto the forward target", func() {
		dep := store.NewConcrete("dep", "1", false)
		conf := store.NewConcrete("conf", "1", false)
		d1 := store.NewDisjunction("d1")
		d2 := store.NewDisjunction("d2")
		store.AddDep(d1, dep)
		store.AddConflict(d1, conf)
		store.Forward(d1, d2)
		Expect(store.Node(d2).Deps()).To(ContainElement(dep))
		Expect(store.Node(d2).Conflicts()).To(ContainElement(conf))
	})

	It("enforces keep monotonicity", func() {
		d := store.NewDisjunction("d")
		Expect(store.SetKeepInstall(d, true)).To(Succeed())
		Expect(store.SetKeepInstall(d, false)).To(HaveOccurred())
		Expect(store.SetKeepInstall(d, true)).To(Succeed())
	})

	It("resolves GetVersion through a forward chain", func() {
		d1 := store.NewDisjunction("d1")
		d2 := store.NewDisjunction("d2")
		store.SetVersion(d2, "9.9")
		store.Forward(d1, d2)
		v, ok := store.GetVersion(d1)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("9.9"))
	})

	It("reports no version for a plain unresolved disjunction", func() {
		d := store.NewDisjunction("d")
		_, ok := store.GetVersion(d)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Intern", func() {
	It("returns the same id for two identical provider sets, first offer wins", func() {
		store := graph.NewStore()
		a := store.NewConcrete("a", "1", false)
		b := store.NewConcrete("b", "1", false)

		first := store.NewDisjunction("first")
		second := store.NewDisjunction("second")

		winner1 := store.Intern(first, []int{a, b})
		winner2 := store.Intern(second, []int{b, a})

		Expect(winner1).To(Equal(first))
		Expect(winner2).To(Equal(first))
	})
})
