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

// package config holds the shared, Viper-bound configuration both CLI
// binaries build their Config from: the filesystem, the logger and the
// debug flag. It carries none of the OS-installer concerns (mounters,
// runners, image extractors) that a config of this shape would need in
// a different domain.
package config

import (
	"github.com/twpayne/go-vfs/v4"

	"github.com/rancher/kcudf/pkg/types"
)

// Config is passed down from the cobra command into the translator and
// reducer drivers so both can be exercised against an injected
// filesystem in tests, matching the vfs-backed testing style used
// throughout.
type Config struct {
	Fs     vfs.FS
	Logger types.Logger
	Debug  bool
}

type Option func(*Config) error

func WithFs(fs vfs.FS) Option {
	return func(c *Config) error {
		c.Fs = fs
		return nil
	}
}

func WithLogger(l types.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

func WithDebug(debug bool) Option {
	return func(c *Config) error {
		c.Debug = debug
		if debug {
			c.Logger.SetLevel(types.DebugLevel())
		}
		return nil
	}
}

// New builds a Config with sane defaults (real OS filesystem, a
// logrus-backed logger) then applies opts in order.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		Fs:     vfs.OSFS,
		Logger: types.NewLogger(),
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
