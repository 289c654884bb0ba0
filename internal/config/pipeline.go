package config

import (
	"fmt"
	"os"
	"strconv"
)

const EnvPipelineVizWorkers = "SCRIVEN_PIPELINE_VIZ_WORKERS"

// PipelineConfig holds analysis pipeline tuning parameters.
type PipelineConfig struct {
	// VizWorkers bounds concurrent visualization generation per job.
	VizWorkers int `toml:"viz_workers"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.VizWorkers != 0 {
		c.VizWorkers = overlay.VizWorkers
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.VizWorkers == 0 {
		c.VizWorkers = 3
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineVizWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.VizWorkers = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.VizWorkers < 1 {
		return fmt.Errorf("viz_workers must be positive")
	}
	return nil
}
