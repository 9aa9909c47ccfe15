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

// package reduce implements the fixed-point worklist over the
// 5-state lattice, with counted candidate/safe providers per node.
package reduce

import "fmt"

// State is a node's position in the CU/CI/MU/MI/SR lattice.
type State int

const (
	CU State = iota
	CI
	MU
	MI
	SR
)

func (s State) String() string {
	switch s {
	case CU:
		return "CU"
	case CI:
		return "CI"
	case MU:
		return "MU"
	case MI:
		return "MI"
	case SR:
		return "SR"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Op is a worklist operation. The four state-changing ops share the
// transition table; PK_UCP/PK_USP/PK_UPD are the counter-maintenance
// and re-propagation ops.
type Op int

const (
	PkMU Op = iota
	PkMI
	PkCI
	PkCU
	PkUCP
	PkUSP
	PkUPD
)

func (o Op) String() string {
	switch o {
	case PkMU:
		return "PK_MU"
	case PkMI:
		return "PK_MI"
	case PkCI:
		return "PK_CI"
	case PkCU:
		return "PK_CU"
	case PkUCP:
		return "PK_UCP"
	case PkUSP:
		return "PK_USP"
	case PkUPD:
		return "PK_UPD"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// outcome is the sentinel result of a table lookup: a genuine next
// state, a hard failure (FL), or an assertion that should never fire
// from a well-formed start (AB).
type outcome int

const (
	outNext outcome = iota
	outFail
	outAbort
)

// transitionTable[state][op] is the reducer's state transition
// function, indexed only by the four state-changing ops (PK_MU,
// PK_MI, PK_CI, PK_CU).
var transitionTable = [5][4]struct {
	next State
	kind outcome
}{
	CU: {
		PkMU: {MU, outNext},
		PkMI: {MI, outNext},
		PkCI: {SR, outNext},
		PkCU: {CU, outNext},
	},
	CI: {
		PkMU: {MU, outNext},
		PkMI: {MI, outNext},
		PkCI: {CI, outNext},
		PkCU: {SR, outNext},
	},
	MU: {
		PkMU: {MU, outNext},
		PkMI: {0, outFail},
		PkCI: {MU, outNext},
		PkCU: {MU, outNext},
	},
	MI: {
		PkMU: {0, outFail},
		PkMI: {MI, outNext},
		PkCI: {MI, outNext},
		PkCU: {MI, outNext},
	},
	SR: {
		PkMU: {0, outAbort},
		PkMI: {0, outAbort},
		PkCI: {SR, outNext},
		PkCU: {SR, outNext},
	},
}

// transition applies op to old and reports the next state. failed is
// true when the table says FL (hard failure, caller must stop the run);
// abort is true when it says AB (an invariant violation - never
// reachable from a valid start), which the caller reports as a
// programming error rather than a feasibility failure.
func transition(old State, op Op) (next State, failed bool, abort bool) {
	entry := transitionTable[old][op]
	switch entry.kind {
	case outFail:
		return old, true, false
	case outAbort:
		return old, false, true
	default:
		return entry.next, false, false
	}
}

func isSP(s State) bool  { return s == CI || s == MI }
func isSPI(s State) bool { return isSP(s) || s == SR }
func isCP(s State) bool  { return s != MU }

// seedState computes the reducer's initial state from a node's
// translated (keep, install) pair.
func seedState(keep, install bool) State {
	switch {
	case !keep && !install:
		return CU
	case !keep && install:
		return CI
	case keep && !install:
		return MU
	default:
		return MI
	}
}
