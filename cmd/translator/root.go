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
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kcudfconfig "github.com/rancher/kcudf/pkg/config"
	"github.com/rancher/kcudf/pkg/cudf"
	kcudferror "github.com/rancher/kcudf/pkg/error"
	"github.com/rancher/kcudf/pkg/kcudf/codec"
	"github.com/rancher/kcudf/pkg/kcudf/graph"
	"github.com/rancher/kcudf/pkg/kcudf/translate"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translator CUDF [KCUDF] [INFO]",
		Short: "Translate a CUDF universe into KCUDF normal form",
		Args:  cobra.RangeArgs(1, 3),
		RunE:  run,
	}
	cmd.PersistentFlags().Bool("debug", false, "Embed human diagnostics in # comments")
	cmd.PersistentFlags().String("paranoid", "", "Emit an extra family-expansion search seed file")
	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("paranoid", cmd.PersistentFlags().Lookup("paranoid"))
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cudfPath := args[0]
	kcudfPath := cudfPath + ".kcudf"
	if len(args) > 1 {
		kcudfPath = args[1]
	}
	infoPath := cudfPath + ".info"
	if len(args) > 2 {
		infoPath = args[2]
	}

	debug := viper.GetBool("debug")
	cfg, err := kcudfconfig.New(kcudfconfig.WithDebug(debug))
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}

	return runTranslate(cfg, cudfPath, kcudfPath, infoPath, viper.GetString("paranoid"), debug)
}

// runTranslate carries the whole CUDF -> KCUDF pipeline for one cfg.Fs,
// factored out of run so it can be exercised against an injected
// filesystem in tests without going through cobra/viper.
func runTranslate(cfg *kcudfconfig.Config, cudfPath, kcudfPath, infoPath, paranoidPath string, debug bool) error {
	in, err := cfg.Fs.Open(cudfPath)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	defer in.Close()

	doc, err := cudf.Read(in)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}

	t := translate.New(cfg.Logger, debug)
	store, err := t.Translate(doc)
	if err != nil {
		return err
	}

	if err := writeKCUDF(cfg, store, kcudfPath, debug); err != nil {
		return err
	}
	if err := writeInfo(cfg, store, infoPath); err != nil {
		return err
	}

	if paranoidPath != "" {
		if err := writeParanoidSeed(cfg, store, paranoidPath); err != nil {
			return err
		}
	}

	cfg.Logger.Infof("translated %s -> %s (%d nodes)", cudfPath, kcudfPath, store.Len())
	return nil
}

func writeKCUDF(cfg *kcudfconfig.Config, store *graph.Store, path string, debug bool) error {
	out, err := cfg.Fs.Create(path)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	defer out.Close()

	w := codec.NewWriter(out, debug)
	g := translate.NewTriGraph(store)

	if debug {
		if err := w.WriteComment("run " + uuid.NewString()); err != nil {
			return kcudferror.NewFromError(err, kcudferror.StreamFailure)
		}
	}

	for _, id := range g.AllIDs() {
		if g.Resolve(id) != id {
			continue // forwarded away, its canonical id carries the edges
		}
		if err := w.WritePackage(codec.PackageRecord{
			ID:      id,
			Keep:    g.IsKept(id),
			Install: g.WantInstall(id),
		}); err != nil {
			return kcudferror.NewFromError(err, kcudferror.StreamFailure)
		}
		for _, d := range g.Dependencies(id) {
			if err := w.WriteDep(codec.EdgeRecord{A: id, B: d}); err != nil {
				return kcudferror.NewFromError(err, kcudferror.StreamFailure)
			}
		}
		for _, c := range g.Conflicts(id) {
			if id < c {
				if err := w.WriteConflict(codec.EdgeRecord{A: id, B: c}); err != nil {
					return kcudferror.NewFromError(err, kcudferror.StreamFailure)
				}
			}
		}
		for _, q := range g.Provides(id) {
			if err := w.WriteProvides(codec.EdgeRecord{A: id, B: q}); err != nil {
				return kcudferror.NewFromError(err, kcudferror.StreamFailure)
			}
		}
		if g.Kind(id) == graph.Concrete {
			// A Concrete's self-provide is explicit in the wire format
			// rather than reader-synthesized, unlike self-deps.
			if err := w.WriteProvides(codec.EdgeRecord{A: id, B: id}); err != nil {
				return kcudferror.NewFromError(err, kcudferror.StreamFailure)
			}
		}
	}
	return kcudferror.NewFromError(w.Flush(), kcudferror.StreamFailure)
}

func writeInfo(cfg *kcudfconfig.Config, store *graph.Store, path string) error {
	out, err := cfg.Fs.Create(path)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	defer out.Close()

	var infos []codec.Info
	for _, id := range store.AllIDs() {
		if store.Chase(id) != id {
			continue
		}
		n := store.Node(id)
		if !n.HasVersion() {
			continue
		}
		infos = append(infos, codec.Info{ID: id, Version: n.Version, Name: n.Name})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	return kcudferror.NewFromError(codec.WriteInfo(out, infos), kcudferror.StreamFailure)
}

// writeParanoidSeed emits, for every name with an installed concrete and
// more than one known version, the ids of all of that name's concretes:
// the "family" the downstream solver must keep in play because a
// sibling version is already on the system.
func writeParanoidSeed(cfg *kcudfconfig.Config, store *graph.Store, path string) error {
	out, err := cfg.Fs.Create(path)
	if err != nil {
		return kcudferror.NewFromError(err, kcudferror.StreamFailure)
	}
	defer out.Close()

	seen := map[string]bool{}
	var lines []string
	for _, id := range store.AllIDs() {
		n := store.Node(id)
		if n.Kind != graph.Concrete || !n.Installed || seen[n.Name] {
			continue
		}
		if len(store.ConcreteVersions(n.Name)) < 2 {
			continue
		}
		seen[n.Name] = true
		for _, v := range store.ConcreteVersions(n.Name) {
			cid, _ := store.LookupConcrete(n.Name, v)
			lines = append(lines, strconv.Itoa(cid))
		}
	}
	for _, l := range lines {
		if _, err := out.Write([]byte(l + "\n")); err != nil {
			return kcudferror.NewFromError(err, kcudferror.StreamFailure)
		}
	}
	return nil
}
