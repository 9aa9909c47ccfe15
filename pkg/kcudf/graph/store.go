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

package graph

import "fmt"

// Store is the node arena. It owns its own id counter, so multiple
// Stores (hence multiple translations) can coexist in one process -
// the source's global counter is deliberately not reproduced here.
type Store struct {
	nodes  []*Node
	nextID int

	// concrete[name][version] -> id
	concrete map[string]map[string]int
	// specv[name][version] -> id of the disjunction standing for "this
	// version of this name"
	specv map[string]map[string]int
	// constv[key] -> id, general string-keyed intern
	constv map[string]int

	trie *trie
}

func NewStore() *Store {
	return &Store{
		concrete: make(map[string]map[string]int),
		specv:    make(map[string]map[string]int),
		constv:   make(map[string]int),
		trie:     newTrie(),
	}
}

// Len returns the number of allocated nodes (dense id space, so this is
// also one past the highest id).
func (s *Store) Len() int { return len(s.nodes) }

func (s *Store) alloc(kind Kind) *Node {
	id := s.nextID
	s.nextID++
	n := newNode(id, kind)
	s.nodes = append(s.nodes, n)
	return n
}

// NewConcrete creates a Concrete node for (name, version) and records it
// in the concrete index. Exactly one Concrete per (name, version); a
// second call with the same pair returns the existing id (idempotent, as
// the translator may revisit a package while wiring cross-references).
func (s *Store) NewConcrete(name, version string, installed bool) int {
	if byVersion, ok := s.concrete[name]; ok {
		if id, ok := byVersion[version]; ok {
			return id
		}
	} else {
		s.concrete[name] = make(map[string]int)
	}
	n := s.alloc(Concrete)
	n.Name = name
	n.Version = version
	n.hasVersion = true
	n.Installed = installed
	s.concrete[name][version] = n.ID
	return n.ID
}

// LookupConcrete returns the id of an existing (name, version) Concrete,
// if any.
func (s *Store) LookupConcrete(name, version string) (int, bool) {
	byVersion, ok := s.concrete[name]
	if !ok {
		return 0, false
	}
	id, ok := byVersion[version]
	return id, ok
}

// ConcreteVersions returns every version known for name, in no
// particular order; callers that need a stable order sort the result.
func (s *Store) ConcreteVersions(name string) []string {
	byVersion, ok := s.concrete[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(byVersion))
	for v := range byVersion {
		out = append(out, v)
	}
	return out
}

// NewDisjunction creates a Disjunction node. If key is non-empty it is
// recorded in constv so later lookups by the same serialized constraint
// resolve to this id.
func (s *Store) NewDisjunction(key string) int {
	n := s.alloc(Disjunction)
	if key != "" {
		s.constv[key] = n.ID
	}
	return n.ID
}

func (s *Store) LookupConstv(key string) (int, bool) {
	id, ok := s.constv[key]
	return id, ok
}

func (s *Store) SetSpecv(name, version string, id int) {
	if _, ok := s.specv[name]; !ok {
		s.specv[name] = make(map[string]int)
	}
	s.specv[name][version] = id
}

func (s *Store) LookupSpecv(name, version string) (int, bool) {
	byVersion, ok := s.specv[name]
	if !ok {
		return 0, false
	}
	id, ok := byVersion[version]
	return id, ok
}

// Node returns the raw node for id, without chasing forwards. Internal
// packages needing the resolved node should use Chase first.
func (s *Store) Node(id int) *Node {
	return s.nodes[id]
}

// Chase follows the forwarded_to chain to its terminal id. Depth is
// bounded by the number of forwards performed in the run; a self-loop
// would be a programming error, so it is guarded against explicitly
// rather than left to loop forever.
func (s *Store) Chase(id int) int {
	seen := 0
	for {
		n := s.nodes[id]
		if n.forwarded == nil {
			return id
		}
		id = *n.forwarded
		seen++
		if seen > len(s.nodes) {
			panic(fmt.Sprintf("graph: forwarding cycle detected at node %d", id))
		}
	}
}

// AddDep adds a dep edge a -> b (idempotent), maintaining the reverse
// dependers() index alongside it.
func (s *Store) AddDep(a, b int) {
	a, b = s.Chase(a), s.Chase(b)
	na, nb := s.nodes[a], s.nodes[b]
	if na.deps.add(b) {
		nb.revDeps.add(a)
	}
}

// HasDep reports whether a already depends on b (after chasing both).
// The reducer's unit-propagation step (PK_UCP) uses this to avoid
// re-adding an edge that already exists.
func (s *Store) HasDep(a, b int) bool {
	a, b = s.Chase(a), s.Chase(b)
	return s.nodes[a].deps.has(b)
}

// AddConflict adds an undirected conflict between a and b, stored
// symmetrically on both nodes so conflicts(p) is an O(1) lookup in
// either direction; the writer normalizes to (min, max) on emission.
func (s *Store) AddConflict(a, b int) {
	a, b = s.Chase(a), s.Chase(b)
	if a == b {
		return
	}
	s.nodes[a].conflicts.add(b)
	s.nodes[b].conflicts.add(a)
}

// AddProvider adds providerID as an alternative of disjunction disjID,
// and, dually, records disjID in providerID's provides() set - the two
// adjacency sets the reducer's update rule walks in opposite
// directions from the same edge.
func (s *Store) AddProvider(disjID, providerID int) {
	disjID, providerID = s.Chase(disjID), s.Chase(providerID)
	s.nodes[disjID].providers.add(providerID)
	s.nodes[providerID].provides.add(disjID)
}

// RemoveProvider undoes AddProvider, dropping the edge from both
// adjacency sets.
func (s *Store) RemoveProvider(disjID, providerID int) {
	s.nodes[disjID].providers.remove(providerID)
	s.nodes[providerID].provides.remove(disjID)
}

// SetBut records the single id to exclude when expanding disjID's
// providers (the "conflict with any version except myself" idiom).
func (s *Store) SetBut(disjID, butID int) {
	s.nodes[disjID].but = &butID
}

// SetVersion stamps the version a Disjunction stands for, so GetVersion
// resolves for it; the translator stamps each concrete's per-version
// "name=v" disjunction this way in pass 1.
func (s *Store) SetVersion(id int, v string) {
	n := s.nodes[id]
	n.Version = v
	n.hasVersion = true
}

// ReplaceProviders overwrites a Disjunction's provider set wholesale,
// used by the flatten pass to rewrite a node's providers to its fully
// expanded, concrete-only set.
func (s *Store) ReplaceProviders(disjID int, providers []int) {
	n := s.nodes[disjID]
	for old := range n.providers {
		s.nodes[old].provides.remove(disjID)
	}
	n.providers = newIDSet()
	for _, p := range providers {
		n.providers.add(p)
		s.nodes[p].provides.add(disjID)
	}
}

// MarkFlat sets the flat memoization flag (monotonic: flatten never
// needs to run twice for the same node).
func (s *Store) MarkFlat(id int) {
	s.nodes[id].flat = true
}

// AllIDs returns every allocated node id in allocation order.
func (s *Store) AllIDs() []int {
	out := make([]int, len(s.nodes))
	for i := range s.nodes {
		out[i] = i
	}
	return out
}

// Forward marks a as an alias of b: a's deps and conflicts are
// transferred onto b, b is removed from a's providers if present, and a
// diagnostic breadcrumb is appended. Only Disjunctions may be forwarded,
// and only to other Disjunctions; a self-forward is a programming error.
func (s *Store) Forward(a, b int) {
	if a == b {
		panic("graph: refusing to forward a node to itself")
	}
	na, nb := s.nodes[a], s.nodes[b]
	if na.Kind != Disjunction || nb.Kind != Disjunction {
		panic("graph: forward is only valid between Disjunction nodes")
	}
	for id := range na.deps {
		s.AddDep(b, id)
	}
	for id := range na.conflicts {
		s.AddConflict(b, id)
	}
	na.providers.remove(b)
	target := b
	na.forwarded = &target
	na.Info = append(na.Info, fmt.Sprintf("forwarded to %d", b))
}

// GetVersion resolves a forwarded Disjunction's version by forwarding
// GetVersion through the redirect chain; otherwise
// the stored version is returned, or ok=false if none was supplied
// (the source's "-1" sentinel).
func (s *Store) GetVersion(id int) (string, bool) {
	id = s.Chase(id)
	n := s.nodes[id]
	return n.Version, n.hasVersion
}

// SetKeepInstall applies install/keep monotonicity: once keep is true
// for a polarity, flipping install is a hard failure.
func (s *Store) SetKeepInstall(id int, install bool) error {
	id = s.Chase(id)
	n := s.nodes[id]
	if n.Keep && n.Install != install {
		return fmt.Errorf("keep conflict on node %d (%s): already keep,install=%v, requested %v", id, n.Name, n.Install, install)
	}
	n.Keep = true
	n.Install = install
	return nil
}

// Intern offers a Disjunction's flattened provider set to the trie.
// candidateID wins ties for a brand new set; a pre-existing set returns
// its original owner's id so the caller can Forward the duplicate.
func (s *Store) Intern(candidateID int, providers []int) int {
	return s.trie.intern(candidateID, providers)
}
