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

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kcudfconfig "github.com/rancher/kcudf/pkg/config"
	kcudferror "github.com/rancher/kcudf/pkg/error"
	"github.com/rancher/kcudf/pkg/kcudf/codec"
	"github.com/rancher/kcudf/pkg/kcudf/paranoid"
	"github.com/rancher/kcudf/pkg/kcudf/reduce"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reducer KCUDF [SOLVED] [SEARCH]",
		Short: "Propagate install/uninstall obligations over a KCUDF graph",
		Args:  cobra.RangeArgs(1, 3),
		RunE:  run,
	}
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("paranoid", "", "Read seed ids that must enter SR")
	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("paranoid", cmd.PersistentFlags().Lookup("paranoid"))
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	kcudfPath := args[0]
	solvedPath := kcudfPath + ".solved"
	if len(args) > 1 {
		solvedPath = args[1]
	}
	searchPath := kcudfPath + ".search"
	if len(args) > 2 {
		searchPath = args[2]
	}

	debug := viper.GetBool("debug")
	cfg, err := kcudfconfig.New(kcudfconfig.WithDebug(debug))
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}

	return runReduce(cfg, kcudfPath, solvedPath, searchPath, viper.GetString("paranoid"))
}

// runReduce carries the whole KCUDF -> solved/search pipeline for one
// cfg.Fs, factored out of run so it can be exercised against an
// injected filesystem in tests without going through cobra/viper.
func runReduce(cfg *kcudfconfig.Config, kcudfPath, solvedPath, searchPath, paranoidPath string) error {
	in, err := cfg.Fs.Open(kcudfPath)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	doc, err := codec.ReadAll(in)
	in.Close()
	if err != nil {
		return err
	}

	g := codec.LoadWireGraph(doc)

	var seeds []int
	if paranoidPath != "" {
		sf, err := cfg.Fs.Open(paranoidPath)
		if err != nil {
			return kcudferror.NewFromError(err, kcudferror.StreamFailure)
		}
		seeds, err = paranoid.ReadSeeds(sf)
		sf.Close()
		if err != nil {
			return err
		}
	}

	r := reduce.New(g, cfg.Logger)
	outcome, err := r.Run(seeds)
	if err != nil {
		return err
	}

	if err := writeSolved(cfg, g, r, solvedPath); err != nil {
		return err
	}
	if err := writeSearch(cfg, g, r, searchPath); err != nil {
		return err
	}

	cfg.Logger.Infof("reduced %s: %s (%d solved, %d search)", kcudfPath, outcome, len(r.SolvedIDs()), len(r.SearchIDs()))
	return nil
}

func writeSolved(cfg *kcudfconfig.Config, g *codec.WireGraph, r *reduce.Reducer, path string) error {
	out, err := cfg.Fs.Create(path)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	defer out.Close()

	w := codec.NewWriter(out, false)
	for _, id := range r.SolvedIDs() {
		if err := w.WritePackage(codec.PackageRecord{ID: id, Keep: true, Install: r.SolvedInstall(id)}); err != nil {
			return kcudferror.NewFromError(err, kcudferror.StreamFailure)
		}
	}
	return kcudferror.NewFromError(w.Flush(), kcudferror.StreamFailure)
}

type edgeKey struct{ a, b int }

func writeSearch(cfg *kcudfconfig.Config, g *codec.WireGraph, r *reduce.Reducer, path string) error {
	out, err := cfg.Fs.Create(path)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	defer out.Close()

	w := codec.NewWriter(out, false)
	writtenDep := map[edgeKey]bool{}
	writtenConflict := map[edgeKey]bool{}
	writtenProvide := map[edgeKey]bool{}

	for _, id := range r.SearchIDs() {
		keep, install := true, true
		if r.State(id) == reduce.SR {
			keep, install = g.IsKept(id), g.WantInstall(id)
		}
		if err := w.WritePackage(codec.PackageRecord{ID: id, Keep: keep, Install: install}); err != nil {
			return kcudferror.NewFromError(err, kcudferror.StreamFailure)
		}
	}

	// Edge pass: every MI/CI/SR node contributes an edge whenever the
	// *other* endpoint is literally SR, regardless of whether the source
	// node itself is a search-slice member (an MI/CI node fully decided
	// by the reducer still needs its edges into the open part of the
	// graph reported, or the downstream solver can pick a provider that
	// violates a conflict the reducer already resolved). MI/CI nodes
	// additionally report their incoming SR-provider edges when they
	// have no safe provider yet (sp==0): a provider must still be chosen
	// for them among their SR candidates.
	for _, id := range g.AllIDs() {
		s := r.State(id)
		if s != reduce.MI && s != reduce.CI && s != reduce.SR {
			continue
		}
		for _, d := range g.Dependencies(id) {
			if r.State(d) != reduce.SR {
				continue
			}
			key := edgeKey{id, d}
			if writtenDep[key] {
				continue
			}
			writtenDep[key] = true
			if err := w.WriteDep(codec.EdgeRecord{A: id, B: d}); err != nil {
				return kcudferror.NewFromError(err, kcudferror.StreamFailure)
			}
		}
		for _, c := range g.Conflicts(id) {
			if r.State(c) != reduce.SR {
				continue
			}
			a, b := id, c
			if b < a {
				a, b = b, a
			}
			key := edgeKey{a, b}
			if writtenConflict[key] {
				continue
			}
			writtenConflict[key] = true
			if err := w.WriteConflict(codec.EdgeRecord{A: a, B: b}); err != nil {
				return kcudferror.NewFromError(err, kcudferror.StreamFailure)
			}
		}
		for _, q := range g.Provides(id) {
			if r.State(q) != reduce.SR {
				continue
			}
			key := edgeKey{id, q}
			if writtenProvide[key] {
				continue
			}
			writtenProvide[key] = true
			if err := w.WriteProvides(codec.EdgeRecord{A: id, B: q}); err != nil {
				return kcudferror.NewFromError(err, kcudferror.StreamFailure)
			}
		}
		if (s == reduce.MI || s == reduce.CI) && r.SP(id) == 0 {
			for _, p := range g.Providers(id) {
				if r.State(p) != reduce.SR {
					continue
				}
				key := edgeKey{p, id}
				if writtenProvide[key] {
					continue
				}
				writtenProvide[key] = true
				if err := w.WriteProvides(codec.EdgeRecord{A: p, B: id}); err != nil {
					return kcudferror.NewFromError(err, kcudferror.StreamFailure)
				}
			}
		}
	}
	return kcudferror.NewFromError(w.Flush(), kcudferror.StreamFailure)
}
