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

package translate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/kcudf/pkg/cudf"
	"github.com/rancher/kcudf/pkg/kcudf/graph"
	"github.com/rancher/kcudf/pkg/kcudf/translate"
	"github.com/rancher/kcudf/pkg/types"
)

func mustConcrete(g *translate.TriGraph, store *graph.Store, name, version string) int {
	id, ok := store.LookupConcrete(name, version)
	ExpectWithOffset(1, ok).To(BeTrue(), "no concrete %s=%s", name, version)
	return g.Resolve(id)
}

var _ = Describe("Translator", func() {
	var log types.Logger

	BeforeEach(func() {
		log = types.NewNullLogger()
	})

	It("translates a single installed package with no deps or conflicts", func() {
		doc := &cudf.Doc{
			Packages: []*cudf.Package{
				{Name: "a", Version: "1", Installed: true},
			},
		}
		tr := translate.New(log, false)
		store, err := tr.Translate(doc)
		Expect(err).NotTo(HaveOccurred())

		g := translate.NewTriGraph(store)
		a := mustConcrete(g, store, "a", "1")
		Expect(g.Dependencies(a)).To(BeEmpty())
		Expect(g.Conflicts(a)).To(BeEmpty())
	})

	It("interns a genuine disjunctive dependency onto a single Disjunction node", func() {
		doc := &cudf.Doc{
			Packages: []*cudf.Package{
				{Name: "x", Version: "1", Depends: cudf.Formula{
					{{Name: "a", Op: cudf.OpNone}, {Name: "b", Op: cudf.OpNone}},
				}},
				{Name: "a", Version: "1"},
				{Name: "b", Version: "1"},
			},
			Request: cudf.Request{
				Install: cudf.VpkgList{{Name: "x", Op: cudf.OpNone}},
			},
		}
		tr := translate.New(log, false)
		store, err := tr.Translate(doc)
		Expect(err).NotTo(HaveOccurred())

		g := translate.NewTriGraph(store)
		x := mustConcrete(g, store, "x", "1")
		deps := g.Dependencies(x)
		Expect(deps).To(HaveLen(1))

		d := deps[0]
		Expect(g.Kind(d)).To(Equal(graph.Disjunction))
		providers := g.Providers(d)
		Expect(providers).To(HaveLen(2))

		aPvany, ok := store.LookupSpecv("a", "")
		_ = aPvany
		_ = ok
	})

	It("wires an unconstrained provides: into the pvany/pvall chain", func() {
		doc := &cudf.Doc{
			Packages: []*cudf.Package{
				{Name: "virtual-provider", Version: "1", Installed: true,
					Provides: cudf.VpkgList{{Name: "editor", Op: cudf.OpNone}}},
			},
		}
		tr := translate.New(log, false)
		store, err := tr.Translate(doc)
		Expect(err).NotTo(HaveOccurred())

		g := translate.NewTriGraph(store)
		provider := mustConcrete(g, store, "virtual-provider", "1")

		provides := g.Provides(provider)
		Expect(provides).NotTo(BeEmpty())
		// pvall for "editor" - provider is one of its providers.
		pvall := g.Resolve(provides[0])
		Expect(g.Providers(pvall)).To(ContainElement(provider))
	})

	It("adds pairwise conflicts among the retained range of an upgrade request", func() {
		doc := &cudf.Doc{
			Packages: []*cudf.Package{
				{Name: "a", Version: "1", Installed: true},
				{Name: "a", Version: "2"},
				{Name: "a", Version: "3"},
			},
			Request: cudf.Request{
				Upgrade: cudf.VpkgList{{Name: "a", Op: cudf.OpNone}},
			},
		}
		tr := translate.New(log, false)
		store, err := tr.Translate(doc)
		Expect(err).NotTo(HaveOccurred())

		g := translate.NewTriGraph(store)
		v2 := mustConcrete(g, store, "a", "2")
		v3 := mustConcrete(g, store, "a", "3")
		v1 := mustConcrete(g, store, "a", "1")

		Expect(g.Conflicts(v3)).To(ContainElement(v2))
		Expect(g.Conflicts(v2)).To(ContainElement(v3))
		// v1 is the already-installed floor of the retained range, still
		// eligible, so it is not force-uninstalled by the upgrade pass.
		_ = v1
	})

	It("simplifies a zero-provider disjunction created by an unresolvable request", func() {
		doc := &cudf.Doc{
			Packages: []*cudf.Package{
				{Name: "a", Version: "1"},
			},
			Request: cudf.Request{
				Install: cudf.VpkgList{{Name: "a", Op: cudf.OpEQ, Version: "9"}},
			},
		}
		tr := translate.New(log, false)
		store, err := tr.Translate(doc)
		Expect(err).NotTo(HaveOccurred())

		g := translate.NewTriGraph(store)
		id, ok := store.LookupSpecv("a", "9")
		Expect(ok).To(BeTrue())
		id = g.Resolve(id)

		Expect(g.Providers(id)).To(BeEmpty())
		Expect(g.IsKept(id)).To(BeTrue())
		Expect(g.WantInstall(id)).To(BeFalse())
	})

	It("keeps a keep:version package pinned through the whole pipeline", func() {
		doc := &cudf.Doc{
			Packages: []*cudf.Package{
				{Name: "a", Version: "1", Installed: true, Keep: cudf.KeepVersion},
			},
		}
		tr := translate.New(log, false)
		store, err := tr.Translate(doc)
		Expect(err).NotTo(HaveOccurred())

		g := translate.NewTriGraph(store)
		a := mustConcrete(g, store, "a", "1")
		Expect(g.IsKept(a)).To(BeTrue())
	})
})
