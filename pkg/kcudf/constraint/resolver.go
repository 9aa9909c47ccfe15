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

// package constraint implements evaluation of a (name, relop, version)
// constraint against the per-name version index and materializing the
// resolved Disjunction node.
package constraint

import (
	"fmt"

	"github.com/rancher/kcudf/pkg/cudf"
	"github.com/rancher/kcudf/pkg/kcudf/graph"
	"github.com/rancher/kcudf/pkg/kcudf/version"
)

// PvAnyKey / PvAllKey / EqKey / RelKey / ButKey are the stable constv
// naming conventions used to key disjunction lookups by name/version.
func PvAnyKey(name string) string { return fmt.Sprintf("%s-pvany", name) }
func PvAllKey(name string) string { return fmt.Sprintf("%s-pvall", name) }
func EqKey(name, v string) string { return fmt.Sprintf("%s=%s", name, v) }
func RelKey(name string, op cudf.RelOp, v string) string {
	return fmt.Sprintf("%s%s%s", name, op, v)
}
func ButKey(name, exceptVersion string) string {
	return fmt.Sprintf("%s-any\\%s", name, EqKey(name, exceptVersion))
}

// Resolver evaluates CUDF constraints against a *graph.Store.
type Resolver struct {
	store *graph.Store
}

func New(store *graph.Store) *Resolver {
	return &Resolver{store: store}
}

// EnsurePvAny returns the id of "name-pvany", creating it on first use
// (an installed version of name, an unconstrained provides: of name, or
// the self-conflict idiom in ResolveAllExceptSelf).
func (r *Resolver) EnsurePvAny(name string) int {
	key := PvAnyKey(name)
	if id, ok := r.store.LookupConstv(key); ok {
		return id
	}
	return r.store.NewDisjunction(key)
}

// EnsurePvAll returns the id of "name-pvall", the sink disjunction that
// collects every known version's own singleton disjunction.
func (r *Resolver) EnsurePvAll(name string) int {
	key := PvAllKey(name)
	if id, ok := r.store.LookupConstv(key); ok {
		return id
	}
	return r.store.NewDisjunction(key)
}

func (r *Resolver) LookupPvAny(name string) (int, bool) {
	return r.store.LookupConstv(PvAnyKey(name))
}

func (r *Resolver) LookupPvAll(name string) (int, bool) {
	return r.store.LookupConstv(PvAllKey(name))
}

// Resolve materializes (or fetches) the Disjunction standing for a
// single (name, op, version) constraint.
func (r *Resolver) Resolve(c cudf.Constraint) (int, error) {
	switch c.Op {
	case cudf.OpNone:
		// Unconstrained: any known version satisfies this, installed or
		// not, so this resolves onto the pvall sink rather than pvany
		// (which exists only for names with an installed version or an
		// unconstrained provides:, and backs the self-conflict idiom in
		// ResolveAllExceptSelf).
		return r.EnsurePvAll(c.Name), nil
	case cudf.OpEQ:
		return r.resolveEq(c.Name, c.Version), nil
	default:
		return r.resolveRelation(c.Name, c.Op, c.Version), nil
	}
}

// resolveEq looks up the per-version disjunction created in pass 1 for
// an existing concrete. If the version was never seen as a concrete
// package, a virtual disjunction with an empty provider set is created:
// the "version only referenced by the request, never installable"
// scenario.
func (r *Resolver) resolveEq(name, v string) int {
	if id, ok := r.store.LookupSpecv(name, v); ok {
		return id
	}
	key := EqKey(name, v)
	if id, ok := r.store.LookupConstv(key); ok {
		return id
	}
	id := r.store.NewDisjunction(key)
	r.store.SetSpecv(name, v, id)
	return id
}

// resolveRelation enumerates every known version of name and keeps those
// satisfying op, wiring each retained version's own singleton
// disjunction (created in pass 1) as a provider of a fresh disjunction.
func (r *Resolver) resolveRelation(name string, op cudf.RelOp, v string) int {
	key := RelKey(name, op, v)
	if id, ok := r.store.LookupConstv(key); ok {
		return id
	}
	id := r.store.NewDisjunction(key)
	for _, cv := range r.store.ConcreteVersions(name) {
		if !version.Satisfies(cv, string(op), v) {
			continue
		}
		pid, ok := r.store.LookupSpecv(name, cv)
		if !ok {
			continue
		}
		r.store.AddProvider(id, pid)
	}
	return id
}

// ResolveAllExceptSelf materializes the "name-any\name=v" idiom used to
// encode "conflicts with any version of name except v itself".
func (r *Resolver) ResolveAllExceptSelf(name, exceptVersion string) int {
	key := ButKey(name, exceptVersion)
	if id, ok := r.store.LookupConstv(key); ok {
		return id
	}
	id := r.store.NewDisjunction(key)
	pvany := r.EnsurePvAny(name)
	r.store.AddProvider(id, pvany)
	if exceptID, ok := r.store.LookupSpecv(name, exceptVersion); ok {
		r.store.SetBut(id, exceptID)
	}
	return id
}
