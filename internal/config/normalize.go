package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCodes()
	c.normalizeMaterialsProject()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.StoreDir, err = expandPath(c.Paths.StoreDir); err != nil {
		return fmt.Errorf("paths.store_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Lobster.BasisFile != "" {
		if c.Lobster.BasisFile, err = expandPath(c.Lobster.BasisFile); err != nil {
			return fmt.Errorf("lobster.basis_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeCodes() {
	c.VASP.Command = strings.TrimSpace(c.VASP.Command)
	c.VASP.GammaCommand = strings.TrimSpace(c.VASP.GammaCommand)
	c.QChem.Command = strings.TrimSpace(c.QChem.Command)
	c.Lobster.Command = strings.TrimSpace(c.Lobster.Command)
	c.Bader.Command = strings.TrimSpace(c.Bader.Command)
	if c.QChem.Threads <= 0 {
		c.QChem.Threads = defaultQChemThreads
	}
	if c.VASP.TimeoutSeconds <= 0 {
		c.VASP.TimeoutSeconds = defaultVASPTimeout
	}
	if c.QChem.TimeoutSeconds <= 0 {
		c.QChem.TimeoutSeconds = defaultQChemTimeout
	}
	if c.Lobster.TimeoutSeconds <= 0 {
		c.Lobster.TimeoutSeconds = defaultLobsterTimeout
	}
}

func (c *Config) normalizeMaterialsProject() {
	c.MaterialsProject.BaseURL = strings.TrimRight(strings.TrimSpace(c.MaterialsProject.BaseURL), "/")
	if c.MaterialsProject.BaseURL == "" {
		c.MaterialsProject.BaseURL = defaultMPBaseURL
	}
	if c.MaterialsProject.APIKey == "" {
		if key, ok := os.LookupEnv("MP_API_KEY"); ok {
			c.MaterialsProject.APIKey = strings.TrimSpace(key)
		}
	}
	if c.MaterialsProject.TimeoutSeconds <= 0 {
		c.MaterialsProject.TimeoutSeconds = defaultMPTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
