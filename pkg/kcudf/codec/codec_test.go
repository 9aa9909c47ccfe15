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

package codec_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	kcudferror "github.com/rancher/kcudf/pkg/error"
	"github.com/rancher/kcudf/pkg/kcudf/codec"
)

var _ = Describe("Reader", func() {
	It("synthesizes a self-dep for every P line", func() {
		doc, err := codec.ReadAll(strings.NewReader("P 0 K I\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Statements).To(ContainElement(codec.Statement{Kind: "D", ID1: 0, ID2: 0}))
	})

	It("synthesizes the implied dep for every R line", func() {
		doc, err := codec.ReadAll(strings.NewReader("P 0 K I\nP 1 k i\nR 0 1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Statements).To(ContainElement(codec.Statement{Kind: "D", ID1: 0, ID2: 1}))
	})

	It("captures a trailing comment as Desc", func() {
		doc, err := codec.ReadAll(strings.NewReader("P 0 K I # hello world\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Statements[0].Desc).To(Equal("hello world"))
	})

	It("ignores blank lines and comment-only lines", func() {
		doc, err := codec.ReadAll(strings.NewReader("\n# just a comment\nP 0 K I\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Statements).To(HaveLen(2)) // the P line plus its synthesized self-dep
	})

	It("rejects an unrecognized leading statement character", func() {
		_, err := codec.ReadAll(strings.NewReader("X 0 1\n"))
		Expect(err).To(HaveOccurred())
		kerr, ok := err.(*kcudferror.KCUDFError)
		Expect(ok).To(BeTrue())
		Expect(kerr.ExitCode()).To(Equal(kcudferror.InvalidStatement))
	})

	It("rejects a P line with a non-integer id", func() {
		_, err := codec.ReadAll(strings.NewReader("P notanid K I\n"))
		Expect(err).To(HaveOccurred())
	})

	It("parses the info sidecar", func() {
		infos, err := codec.ReadInfo(strings.NewReader("0 1.0 curl\n1 2.0 wget\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(ConsistOf(
			codec.Info{ID: 0, Version: "1.0", Name: "curl"},
			codec.Info{ID: 1, Version: "2.0", Name: "wget"},
		))
	})
})

var _ = Describe("Writer", func() {
	It("drops self-deps rather than writing them back out", func() {
		var buf bytes.Buffer
		w := codec.NewWriter(&buf, false)
		Expect(w.WriteDep(codec.EdgeRecord{A: 5, B: 5})).To(Succeed())
		Expect(w.Flush()).To(Succeed())
		Expect(buf.String()).To(BeEmpty())
	})

	It("normalizes a conflict edge to the smaller id first", func() {
		var buf bytes.Buffer
		w := codec.NewWriter(&buf, false)
		Expect(w.WriteConflict(codec.EdgeRecord{A: 7, B: 3})).To(Succeed())
		Expect(w.Flush()).To(Succeed())
		Expect(buf.String()).To(Equal("C 3 7\n"))
	})

	It("round-trips a package line through the reader", func() {
		var buf bytes.Buffer
		w := codec.NewWriter(&buf, false)
		Expect(w.WritePackage(codec.PackageRecord{ID: 2, Keep: true, Install: false})).To(Succeed())
		Expect(w.Flush()).To(Succeed())

		doc, err := codec.ReadAll(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Statements[0]).To(Equal(codec.Statement{Kind: "P", ID1: 2, Keep: true, Inst: false}))
	})
})

var _ = Describe("WireGraph", func() {
	It("recovers Concrete status from R-line source appearances", func() {
		doc, err := codec.ReadAll(strings.NewReader(
			"P 0 K I\n" +
				"P 1 k i\n" +
				"R 0 0\n" + // self-provide
				"R 0 1\n",
		))
		Expect(err).NotTo(HaveOccurred())

		g := codec.LoadWireGraph(doc)
		Expect(g.IsConcrete(0)).To(BeTrue())
		Expect(g.IsConcrete(1)).To(BeFalse())
		Expect(g.Providers(1)).To(ConsistOf(0))
		Expect(g.Dependencies(0)).To(ContainElement(1)) // the implied R dep

		// The self-provide line marks 0 as Concrete but is not itself
		// loaded as a provides/providers edge, matching the in-memory
		// graph where a Concrete never provides itself and has no
		// providers; only the R 0 1 edge remains.
		Expect(g.Provides(0)).To(ConsistOf(1))
		Expect(g.Providers(0)).To(BeEmpty())
	})

	It("mutates its own adjacency through AddDep for reducer unit propagation", func() {
		doc, err := codec.ReadAll(strings.NewReader("P 0 K I\nP 1 K I\n"))
		Expect(err).NotTo(HaveOccurred())

		g := codec.LoadWireGraph(doc)
		Expect(g.HasDep(1, 0)).To(BeFalse())
		g.AddDep(1, 0)
		Expect(g.HasDep(1, 0)).To(BeTrue())
	})
})
