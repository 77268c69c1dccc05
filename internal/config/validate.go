package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSymmetry(); err != nil {
		return err
	}
	if err := c.validateCodes(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSymmetry() error {
	if c.Symmetry.Symprec <= 0 {
		return fmt.Errorf("symmetry.symprec must be positive, got %g", c.Symmetry.Symprec)
	}
	if c.Symmetry.AngleDegrees <= 0 || c.Symmetry.AngleDegrees >= 90 {
		return fmt.Errorf("symmetry.angle_tolerance must be in (0, 90), got %g", c.Symmetry.AngleDegrees)
	}
	return nil
}

func (c *Config) validateCodes() error {
	if c.VASP.Command == "" {
		return fmt.Errorf("vasp.command must not be empty")
	}
	if c.QChem.Command == "" {
		return fmt.Errorf("qchem.command must not be empty")
	}
	if c.Lobster.Command == "" {
		return fmt.Errorf("lobster.command must not be empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
