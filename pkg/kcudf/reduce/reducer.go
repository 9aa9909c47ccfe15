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

package reduce

import (
	"fmt"

	kcudferror "github.com/rancher/kcudf/pkg/error"
	"github.com/rancher/kcudf/pkg/types"
)

// Graph is the read/write surface the reducer needs: the tri-graph
// relations plus the one adjacency mutation PK_UCP performs. Both the
// in-process translate.TriGraph and a graph reconstructed from a
// stand-alone KCUDF file satisfy it, so the "reducer" CLI never needs
// to link against the translator's node arena.
type Graph interface {
	AllIDs() []int
	Dependencies(id int) []int
	Dependers(id int) []int
	Conflicts(id int) []int
	Provides(id int) []int
	Providers(id int) []int
	IsKept(id int) bool
	WantInstall(id int) bool
	IsConcrete(id int) bool
	Resolve(id int) int
	AddDep(a, b int)
	HasDep(a, b int) bool
}

// Outcome is the top-level classification of a completed run.
type Outcome int

const (
	SOL Outcome = iota
	SEARCH
	FAIL
)

func (o Outcome) String() string {
	switch o {
	case SOL:
		return "SOL"
	case SEARCH:
		return "SEARCH"
	default:
		return "FAIL"
	}
}

// Reducer runs the fixed point over a translated tri-graph. One
// Reducer is good for exactly one run: state/cp/sp are sized once from
// the graph's node count at New time.
type Reducer struct {
	g   Graph
	log types.Logger

	state []State
	cp    []int
	sp    []int

	wl worklist

	failedNode int
	failed     bool
}

func New(g Graph, log types.Logger) *Reducer {
	n := len(g.AllIDs())
	return &Reducer{
		g:     g,
		log:   log,
		state: make([]State, n),
		cp:    make([]int, n),
		sp:    make([]int, n),
	}
}

// Run seeds state from each node's (keep, install), folds in paranoid
// seeds, then drains the worklist to a fixed point.
func (r *Reducer) Run(paranoidIDs []int) (Outcome, error) {
	for _, id := range r.g.AllIDs() {
		r.state[id] = seedState(r.g.IsKept(id), r.g.WantInstall(id))
	}
	for _, id := range r.g.AllIDs() {
		r.cp[id], r.sp[id] = r.countProviders(id)
	}
	for _, id := range r.g.AllIDs() {
		r.wl.pushTD2(PkUPD, id)
	}

	if err := r.seedParanoid(paranoidIDs); err != nil {
		return FAIL, err
	}

	for !r.wl.empty() {
		it := r.wl.pop()
		if err := r.process(it.op, it.id); err != nil {
			return FAIL, err
		}
		if r.failed {
			break
		}
	}

	if r.failed {
		return FAIL, kcudferror.New(
			fmt.Sprintf("reducer: infeasible, node %d reached FL", r.failedNode),
			kcudferror.ReducerInfeasible)
	}

	if len(r.SearchIDs()) == 0 {
		return SOL, nil
	}
	return SEARCH, nil
}

// countProviders scans id's alternative set. A Concrete has no
// alternatives of its own - it is not "provided by" anything, it
// self-provides - so PK_UCP/PK_USP must never fire on it; giving it a
// trivial (1, 1) count keeps both ops no-ops for Concrete ids without
// special-casing the dispatch loop.
func (r *Reducer) countProviders(id int) (cp, sp int) {
	if r.g.IsConcrete(id) {
		return 1, 1
	}
	for _, q := range r.g.Providers(id) {
		if r.state[q] != MU {
			cp++
		}
		if isSP(r.state[q]) {
			sp++
		}
	}
	return
}

// seedParanoid forces every listed id into SR, rejecting non-Concrete
// seeds. Ids already Must-pinned are left alone: SR
// is not reachable from MU/MI in the transition table, and a package
// the translator has already frozen has no remaining choice for the
// paranoid seed to widen.
func (r *Reducer) seedParanoid(ids []int) error {
	for _, raw := range ids {
		id := r.g.Resolve(raw)
		if !r.g.IsConcrete(id) {
			return kcudferror.New(
				fmt.Sprintf("paranoid seed %d does not resolve to a Concrete package", raw),
				kcudferror.InvalidParanoidSeed)
		}
		switch r.state[id] {
		case CU:
			if err := r.process(PkCI, id); err != nil {
				return err
			}
		case CI:
			if err := r.process(PkCU, id); err != nil {
				return err
			}
		default:
			r.log.Debugf("paranoid seed %d already Must-pinned (%s), ignoring", id, r.state[id])
		}
	}
	return nil
}

func (r *Reducer) process(op Op, id int) error {
	switch op {
	case PkMU, PkMI, PkCI, PkCU:
		return r.applyTransition(op, id)
	case PkUCP:
		r.applyUCP(id)
	case PkUSP:
		r.applyUSP(id)
	case PkUPD:
		r.propagate(r.state[id], id)
		r.wl.pushTD1(PkUCP, id)
		r.wl.pushTD2(PkUSP, id)
	}
	return nil
}

func (r *Reducer) applyTransition(op Op, id int) error {
	old := r.state[id]
	next, failedTrans, abort := transition(old, op)
	if abort {
		return fmt.Errorf("reducer: assertion failure, %s applied to %s at node %d (AB reached)", op, old, id)
	}
	if failedTrans {
		r.failed = true
		r.failedNode = id
		return nil
	}
	if next == old {
		return nil
	}

	r.applyUpdateRule(id, old, next)
	r.state[id] = next
	r.propagate(next, id)
	return nil
}

// applyUpdateRule implements the counter-maintenance rule for node id
// transitioning old -> new.
func (r *Reducer) applyUpdateRule(id int, old, next State) {
	provides := r.g.Provides(id)

	if !isSP(old) && isSP(next) {
		for _, q := range provides {
			r.sp[q]++
		}
	} else if isSP(old) && !isSP(next) {
		for _, q := range provides {
			r.sp[q]--
			if r.sp[q] == 0 && isSPI(r.state[q]) {
				r.wl.pushTD2(PkUSP, q)
			}
		}
	}

	if !isSPI(old) && isSPI(next) && r.sp[id] == 0 {
		r.wl.pushTD2(PkUPD, id)
	}

	if isCP(old) && !isCP(next) {
		for _, q := range provides {
			r.cp[q]--
			if r.cp[q] <= 1 {
				r.wl.pushTD1(PkUCP, q)
			}
		}
	}
}

func (r *Reducer) propagate(s State, id int) {
	switch s {
	case MI:
		for _, d := range r.g.Dependencies(id) {
			r.wl.pushTD1(PkMI, d)
		}
		for _, c := range r.g.Conflicts(id) {
			r.wl.pushTD1(PkMU, c)
		}
	case MU:
		for _, d := range r.g.Dependers(id) {
			r.wl.pushTD1(PkMU, d)
		}
	case CI:
		for _, d := range r.g.Dependencies(id) {
			r.wl.pushTD2(PkCI, d)
		}
		for _, c := range r.g.Conflicts(id) {
			r.wl.pushTD2(PkCU, c)
		}
	case CU:
		for _, d := range r.g.Dependers(id) {
			r.wl.pushTD2(PkCU, d)
		}
	case SR:
		for _, d := range r.g.Dependencies(id) {
			r.wl.pushTD2(PkCI, d)
		}
		for _, c := range r.g.Conflicts(id) {
			r.wl.pushTD2(PkCU, c)
		}
		for _, d := range r.g.Dependers(id) {
			r.wl.pushTD2(PkCU, d)
		}
	}
}

// applyUCP is the only place the reducer mutates adjacency: a
// candidate-provider count of exactly one is unit propagation - the
// sole survivor becomes a hard dependency of p.
func (r *Reducer) applyUCP(p int) {
	if r.cp[p] == 0 {
		r.wl.pushTD1(PkMU, p)
		return
	}
	if r.cp[p] != 1 {
		return
	}
	for _, q := range r.g.Providers(p) {
		if !isCP(r.state[q]) {
			continue
		}
		if r.g.HasDep(p, q) {
			continue
		}
		r.g.AddDep(p, q)
		r.wl.pushTD2(PkUPD, p)
		r.wl.pushTD2(PkUPD, q)
	}
}

func (r *Reducer) applyUSP(p int) {
	if r.sp[p] != 0 || !isSPI(r.state[p]) {
		return
	}
	for _, q := range r.g.Providers(p) {
		r.wl.pushTD2(PkCI, q)
	}
	r.wl.pushTD2(PkCU, p)
}

// State returns node id's final lattice state; only meaningful after
// Run has returned.
func (r *Reducer) State(id int) State { return r.state[id] }

func (r *Reducer) SP(id int) int { return r.sp[id] }
func (r *Reducer) CP(id int) int { return r.cp[id] }

// SolvedIDs is every node whose final state is MI/CI/MU/CU - the part
// of the graph the reducer fully decided.
func (r *Reducer) SolvedIDs() []int {
	var out []int
	for _, id := range r.g.AllIDs() {
		if r.state[id] != SR {
			out = append(out, id)
		}
	}
	return out
}

// SearchIDs is every SR node plus every MI/CI node whose sp is still
// zero: a provider must still be chosen for it among SR candidates, so
// the downstream solver needs it too even though the reducer decided
// its own install/keep polarity.
func (r *Reducer) SearchIDs() []int {
	var out []int
	for _, id := range r.g.AllIDs() {
		s := r.state[id]
		if s == SR {
			out = append(out, id)
			continue
		}
		if (s == MI || s == CI) && r.sp[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

// SolvedInstall reports the install flag the solved slice should emit
// for id (keep is always true there): true for MI/CI, false for MU/CU.
func (r *Reducer) SolvedInstall(id int) bool {
	s := r.state[id]
	return s == MI || s == CI
}
