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

// package translate implements the translator driver: a five-pass
// walk of a CUDF document that populates a *graph.Store, followed by
// flattening, interning/forwarding, zero/one-provider simplification,
// the virtual-install fix-up and request processing.
package translate

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	kcudferror "github.com/rancher/kcudf/pkg/error"
	"github.com/rancher/kcudf/pkg/cudf"
	"github.com/rancher/kcudf/pkg/kcudf/constraint"
	"github.com/rancher/kcudf/pkg/kcudf/graph"
	kcudfversion "github.com/rancher/kcudf/pkg/kcudf/version"
	"github.com/rancher/kcudf/pkg/types"
)

// Translator drives the five passes plus flatten/intern/simplify/fixup
// over one *graph.Store. It is not reusable across documents: build a
// fresh Translator per CUDF input.
type Translator struct {
	store    *graph.Store
	resolver *constraint.Resolver
	log      types.Logger
	Debug    bool

	flattenMemo *lru.Cache[int, []int]
}

func New(log types.Logger, debug bool) *Translator {
	store := graph.NewStore()
	memo, _ := lru.New[int, []int](4096)
	return &Translator{
		store:       store,
		resolver:    constraint.New(store),
		log:         log,
		Debug:       debug,
		flattenMemo: memo,
	}
}

// Store returns the underlying node arena, for callers (the KCUDF
// writer, the reducer) that need read access to the translated model.
func (t *Translator) Store() *graph.Store { return t.store }

func (t *Translator) debugf(format string, args ...interface{}) {
	if t.Debug {
		t.log.Debugf(format, args...)
	}
}

// Translate runs the full pipeline over doc and returns the populated
// store, or an error if the document is malformed (InvalidProvide) or
// the request is unsatisfiable against existing keeps (FailedRequest).
func (t *Translator) Translate(doc *cudf.Doc) (*graph.Store, error) {
	t.passConcretePackages(doc)
	t.passInstalledPackages(doc)
	t.passEqualityConstraints(doc)
	if err := t.passProvides(doc); err != nil {
		return nil, err
	}
	t.passRangeAndDisjunctive(doc)

	t.internAndForwardAll()
	t.simplifyZeroProviders()
	t.fixupVirtualInstall()

	if err := t.processRequest(doc); err != nil {
		return nil, err
	}

	t.fixupVirtualInstall()

	return t.store, nil
}

// --- Pass 1: concrete packages -------------------------------------------------

func (t *Translator) passConcretePackages(doc *cudf.Doc) {
	for _, pkg := range doc.Packages {
		cid := t.store.NewConcrete(pkg.Name, pkg.Version, pkg.Installed)

		verID := t.store.NewDisjunction(constraint.EqKey(pkg.Name, pkg.Version))
		t.store.SetVersion(verID, pkg.Version)
		t.store.AddProvider(verID, cid)
		t.store.SetSpecv(pkg.Name, pkg.Version, verID)

		pvall := t.resolver.EnsurePvAll(pkg.Name)
		t.store.AddProvider(pvall, verID)

		if pkg.Installed {
			pvany := t.resolver.EnsurePvAny(pkg.Name)
			t.store.AddProvider(pvany, pvall)
		}

		if pkg.Keep == cudf.KeepVersion {
			if err := t.store.SetKeepInstall(cid, true); err != nil {
				t.log.Warnf("keep:version conflict for %s=%s: %v", pkg.Name, pkg.Version, err)
			}
		}
	}
}

// --- Pass 2: installed packages ------------------------------------------------

func (t *Translator) passInstalledPackages(doc *cudf.Doc) {
	for _, pkg := range doc.Packages {
		pvany, ok := t.resolver.LookupPvAny(pkg.Name)
		if !ok {
			continue
		}
		cid, _ := t.store.LookupConcrete(pkg.Name, pkg.Version)
		t.store.AddProvider(pvany, cid)
	}
}

// --- Pass 3: equality constraints -----------------------------------------------

func (t *Translator) passEqualityConstraints(doc *cudf.Doc) {
	for _, pkg := range doc.Packages {
		cid, _ := t.store.LookupConcrete(pkg.Name, pkg.Version)

		for _, disj := range pkg.Depends {
			if len(disj) != 1 || disj[0].Op != cudf.OpEQ {
				continue
			}
			target, _ := t.resolver.Resolve(disj[0])
			t.store.AddDep(cid, target)
		}
		for _, c := range pkg.Conflicts {
			if c.Op != cudf.OpEQ {
				continue
			}
			target, _ := t.resolver.Resolve(c)
			t.store.AddConflict(cid, target)
		}
		for _, c := range pkg.Provides {
			if c.Op != cudf.OpEQ {
				continue
			}
			target, _ := t.resolver.Resolve(c)
			t.store.AddProvider(target, cid)
		}
	}
}

// --- Pass 4: provides -----------------------------------------------------------

func (t *Translator) passProvides(doc *cudf.Doc) error {
	for _, pkg := range doc.Packages {
		cid, _ := t.store.LookupConcrete(pkg.Name, pkg.Version)
		for _, c := range pkg.Provides {
			switch c.Op {
			case cudf.OpEQ:
				continue // handled in pass 3
			case cudf.OpNone:
				pvall := t.resolver.EnsurePvAll(c.Name)
				t.store.AddProvider(pvall, cid)
				pvany := t.resolver.EnsurePvAny(c.Name)
				t.store.AddProvider(pvany, pvall)
			default:
				return kcudferror.New(
					fmt.Sprintf("package %s=%s: provides: only supports '=' or unconstrained relations, got %q", pkg.Name, pkg.Version, c.Op),
					kcudferror.InvalidProvide)
			}
		}
	}
	return nil
}

// --- Pass 5: range constraints and disjunctive dependencies --------------------

func (t *Translator) passRangeAndDisjunctive(doc *cudf.Doc) {
	for _, pkg := range doc.Packages {
		cid, _ := t.store.LookupConcrete(pkg.Name, pkg.Version)

		for _, disj := range pkg.Depends {
			if len(disj) == 1 && disj[0].Op == cudf.OpEQ {
				continue // handled in pass 3
			}
			if len(disj) == 1 {
				target, _ := t.resolver.Resolve(disj[0])
				t.store.AddDep(cid, target)
				continue
			}
			target := t.materializeFormula(disj)
			t.store.AddDep(cid, target)
		}

		for _, c := range pkg.Conflicts {
			if c.Op == cudf.OpEQ {
				continue // handled in pass 3
			}
			if c.Name == pkg.Name {
				target := t.resolver.ResolveAllExceptSelf(pkg.Name, pkg.Version)
				t.store.AddConflict(cid, target)
				continue
			}
			target, _ := t.resolver.Resolve(c)
			t.store.AddConflict(cid, target)
		}
	}
}

// materializeFormula wires a genuine CUDF disjunction ("a | b") into a
// single interned Disjunction node whose providers are every term's
// resolved id.
func (t *Translator) materializeFormula(disj cudf.Disjunction) int {
	key := serializeDisjunction(disj)
	if id, ok := t.store.LookupConstv(key); ok {
		return id
	}
	id := t.store.NewDisjunction(key)
	for _, term := range disj {
		termID, _ := t.resolver.Resolve(term)
		t.store.AddProvider(id, termID)
	}
	return id
}

func serializeDisjunction(disj cudf.Disjunction) string {
	parts := make([]string, len(disj))
	for i, c := range disj {
		parts[i] = fmt.Sprintf("%s%s%s", c.Name, c.Op, c.Version)
	}
	return strings.Join(parts, "|")
}

// --- Flatten / intern / forward --------------------------------------------------

// flatten recursively expands a Disjunction's provider set until only
// Concrete leaves remain, applying its `but` exclusion last, and
// rewrites the node's providers to that expanded set. Memoized by the
// node's flat flag and, across the run, by an LRU cache keyed on id so
// a disjunction reached from multiple paths is only expanded once.
func (t *Translator) flatten(id int, visiting map[int]bool) []int {
	n := t.store.Node(id)
	if n.Kind == graph.Concrete {
		return []int{id}
	}
	if n.Flat() {
		return n.Providers()
	}
	if cached, ok := t.flattenMemo.Get(id); ok {
		return cached
	}
	if visiting[id] {
		t.log.Fatalf("translate: cyclic disjunction reference at node %d", id)
	}
	visiting[id] = true

	seen := map[int]bool{}
	var expanded []int
	for _, p := range n.Providers() {
		for _, c := range t.flatten(p, visiting) {
			if !seen[c] {
				seen[c] = true
				expanded = append(expanded, c)
			}
		}
	}
	delete(visiting, id)

	if butID, ok := n.But(); ok {
		// but names the excluded version's per-version disjunction, so
		// exclude every Concrete it flattens to.
		excluded := map[int]bool{}
		for _, c := range t.flatten(butID, visiting) {
			excluded[c] = true
		}
		filtered := expanded[:0]
		for _, c := range expanded {
			if !excluded[c] {
				filtered = append(filtered, c)
			}
		}
		expanded = filtered
	}

	sort.Ints(expanded)
	t.store.ReplaceProviders(id, expanded)
	t.store.MarkFlat(id)
	t.flattenMemo.Add(id, expanded)
	return expanded
}

// internAndForwardAll flattens every Disjunction and canonicalizes
// duplicates via the trie. A flattened singleton set
// collapses onto the concrete's own per-version disjunction created in
// pass 1 (see DESIGN.md for why this, rather than a raw trie seed on
// the concrete id, resolves the source's ambiguous singleton-collapse
// assertion); any other case forwards through the general trie.
func (t *Translator) internAndForwardAll() {
	for _, id := range t.store.AllIDs() {
		n := t.store.Node(id)
		if n.Kind != graph.Disjunction || n.IsForwarded() {
			continue
		}
		t.flatten(id, map[int]bool{})
	}

	for _, id := range t.store.AllIDs() {
		n := t.store.Node(id)
		if n.Kind != graph.Disjunction || n.IsForwarded() {
			continue
		}
		t.internNode(id)
	}
}

func (t *Translator) internNode(id int) {
	n := t.store.Node(id)
	providers := n.Providers()

	if len(providers) == 1 {
		leaf := t.store.Node(providers[0])
		verID, ok := t.store.LookupSpecv(leaf.Name, leaf.Version)
		if !ok {
			t.log.Fatalf("translate: singleton disjunction %d has no canonical per-version disjunction for %s=%s", id, leaf.Name, leaf.Version)
			return
		}
		if verID != id {
			t.store.Forward(id, verID)
		}
		return
	}

	winner := t.store.Intern(id, providers)
	if winner != id {
		t.store.Forward(id, winner)
	}
}

// --- Zero-provider simplification -----------------------------------------------

func (t *Translator) simplifyZeroProviders() {
	for _, id := range t.store.AllIDs() {
		n := t.store.Node(id)
		if n.Kind != graph.Disjunction || n.IsForwarded() {
			continue
		}
		if len(n.Providers()) == 0 {
			if err := t.store.SetKeepInstall(id, false); err != nil {
				t.log.Warnf("zero-provider simplification conflict on node %d: %v", id, err)
			}
		}
	}
}

// --- Virtual install fix-up ------------------------------------------------------

func (t *Translator) fixupVirtualInstall() {
	for _, id := range t.store.AllIDs() {
		n := t.store.Node(id)
		if n.Kind != graph.Disjunction || n.IsForwarded() {
			continue
		}
		for _, p := range n.Providers() {
			pn := t.store.Node(p)
			if pn.Kind == graph.Concrete && pn.Install {
				n.Install = true
				break
			}
		}
	}
}

// --- Request processing -----------------------------------------------------------

func (t *Translator) processRequest(doc *cudf.Doc) error {
	var toInstall, toUninstall []int

	for _, c := range doc.Request.Install {
		id, err := t.resolver.Resolve(c)
		if err != nil {
			return kcudferror.NewFromError(err, kcudferror.FailedRequest)
		}
		toInstall = append(toInstall, id)
	}
	for _, c := range doc.Request.Remove {
		id, err := t.resolver.Resolve(c)
		if err != nil {
			return kcudferror.NewFromError(err, kcudferror.FailedRequest)
		}
		toUninstall = append(toUninstall, id)
	}
	for _, c := range doc.Request.Upgrade {
		id, uninst, err := t.processUpgrade(c)
		if err != nil {
			return err
		}
		toInstall = append(toInstall, id)
		toUninstall = append(toUninstall, uninst...)
	}

	for _, pkg := range doc.Packages {
		switch pkg.Keep {
		case cudf.KeepPackage:
			toInstall = append(toInstall, t.resolver.EnsurePvAll(pkg.Name))
		case cudf.KeepFeature:
			id := t.materializeFeatureKeep(pkg)
			if id != 0 || len(pkg.Provides) > 0 {
				toInstall = append(toInstall, id)
			}
		}
	}

	for _, id := range toInstall {
		t.flatten(id, map[int]bool{})
		t.internNode(id)
		canonical := t.store.Chase(id)
		// A request naming a version that turned out to have zero
		// providers (e.g. a version nobody declares) cannot ever be
		// satisfied. It still gets a keep pin, just not install=true.
		want := len(t.store.Node(canonical).Providers()) > 0 || t.store.Node(canonical).Kind == graph.Concrete
		if err := t.store.SetKeepInstall(id, want); err != nil {
			return kcudferror.NewFromError(err, kcudferror.FailedRequest)
		}
	}
	for _, id := range toUninstall {
		t.flatten(id, map[int]bool{})
		t.internNode(id)
		if err := t.store.SetKeepInstall(id, false); err != nil {
			return kcudferror.NewFromError(err, kcudferror.FailedRequest)
		}
	}
	return nil
}

// processUpgrade implements the "upgrade v_of_name" request: walking
// known versions from highest to lowest, every version at or above the
// requested threshold, down to and including the first
// already-installed one, forms the upgrade range and gets pairwise
// at-most-one conflicts; every other version is uninstalled.
func (t *Translator) processUpgrade(c cudf.Constraint) (installID int, uninstallIDs []int, err error) {
	name := c.Name
	if pvallID, ok := t.resolver.LookupPvAll(name); ok {
		if n := t.store.Node(t.store.Chase(pvallID)); n.Keep && n.Install {
			return 0, nil, kcudferror.New(fmt.Sprintf("upgrade %s: %s-pvall is already install-pinned", name, name), kcudferror.FailedRequest)
		}
	}

	versions := t.store.ConcreteVersions(name)
	sort.Slice(versions, func(i, j int) bool {
		return kcudfversion.Compare(versions[i], versions[j]) > 0 // descending
	})

	var rangeIDs []int
	reachedInstalled := false
	for _, v := range versions {
		cid, _ := t.store.LookupConcrete(name, v)
		concrete := t.store.Node(cid)
		verID, _ := t.store.LookupSpecv(name, v)

		aboveThreshold := c.Op == cudf.OpNone || kcudfversion.Compare(v, c.Version) >= 0
		if !aboveThreshold || reachedInstalled {
			uninstallIDs = append(uninstallIDs, verID)
			continue
		}
		rangeIDs = append(rangeIDs, cid)
		if concrete.Installed {
			reachedInstalled = true
		}
	}

	for i := 0; i < len(rangeIDs); i++ {
		for j := i + 1; j < len(rangeIDs); j++ {
			t.store.AddConflict(rangeIDs[i], rangeIDs[j])
		}
	}

	freshID := t.store.NewDisjunction("")
	for _, cid := range rangeIDs {
		n := t.store.Node(cid)
		verID, _ := t.store.LookupSpecv(n.Name, n.Version)
		t.store.AddProvider(freshID, verID)
	}
	return freshID, uninstallIDs, nil
}

// materializeFeatureKeep implements keep:feature: a fresh disjunction
// over everything the package's provides: field names.
func (t *Translator) materializeFeatureKeep(pkg *cudf.Package) int {
	if len(pkg.Provides) == 0 {
		return 0
	}
	id := t.store.NewDisjunction("")
	for _, c := range pkg.Provides {
		target, _ := t.resolver.Resolve(c)
		t.store.AddProvider(id, target)
	}
	return id
}
