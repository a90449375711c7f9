/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package streams

import (
	"path/filepath"

	"github.com/ersushantsood/storm/pkg/errors"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type Config struct {
	// TopologyID id of the running topology instance(eg: word-count-<uuid>)
	TopologyID string
	// BaseDir parent directory of ResourceDir and PIDDir when they are not set
	BaseDir string
	// ResourceDir directory holding the artifacts of components implemented outside of this
	// process(default: BaseDir/<TopologyID>/resources)
	ResourceDir string
	// PIDDir directory subprocesses write their pid files into(default: BaseDir/<TopologyID>/pids)
	PIDDir string
	Debug  struct {
		Http struct {
			// Enabled enable topology debug http server(debug purposes only)
			Enabled bool
			// Host debug http server host(eg: localhost:8100)
			Host string
		}
	}
	// MetricsReporter default metrics reporter(default: NoopReporter)
	MetricsReporter metrics.Reporter
	// Logger default logger(default: NoopLogger)
	Logger log.Logger
}

func NewConfig() *Config {
	config := &Config{}
	config.BaseDir = filepath.Join(`/tmp`, `storm`)
	config.Debug.Http.Host = `:8100`

	// default metrics reporter
	config.MetricsReporter = metrics.NoopReporter()
	config.Logger = log.NewNoopLogger()

	return config
}

func (c *Config) setUp() {
	if c.ResourceDir == `` && c.BaseDir != `` {
		c.ResourceDir = filepath.Join(c.BaseDir, c.TopologyID, `resources`)
	}

	if c.PIDDir == `` && c.BaseDir != `` {
		c.PIDDir = filepath.Join(c.BaseDir, c.TopologyID, `pids`)
	}

	if c.Logger == nil {
		c.Logger = log.NewNoopLogger()
	}

	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

func (c *Config) validate() error {
	if c.TopologyID == `` {
		return errors.New(`[TopologyID] cannot be empty`)
	}

	if c.ResourceDir == `` {
		return errors.New(`[ResourceDir] cannot be empty, set it or [BaseDir]`)
	}

	if c.PIDDir == `` {
		return errors.New(`[PIDDir] cannot be empty, set it or [BaseDir]`)
	}

	if c.Debug.Http.Enabled && c.Debug.Http.Host == `` {
		return errors.New(`[Debug.Http.Host] cannot be empty when Debug.Http.Enabled == true`)
	}

	return nil
}
