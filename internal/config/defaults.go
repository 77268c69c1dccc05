package config

const (
	defaultScratchDir     = "~/.local/share/atomflow/scratch"
	defaultStoreDir       = "~/.local/share/atomflow/store"
	defaultLogDir         = "~/.local/share/atomflow/logs"
	defaultSymprec        = 0.1
	defaultAngleTolerance = 5.0
	defaultVASPCommand    = "vasp_std"
	defaultVASPGamma      = "vasp_gam"
	defaultVASPTimeout    = 86400
	defaultQChemCommand   = "qchem"
	defaultQChemThreads   = 1
	defaultQChemTimeout   = 86400
	defaultLobsterCommand = "lobster"
	defaultLobsterTimeout = 14400
	defaultBaderCommand   = "bader"
	defaultMPBaseURL      = "https://api.materialsproject.org"
	defaultMPTimeout      = 30
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			StoreDir:   defaultStoreDir,
			LogDir:     defaultLogDir,
		},
		Symmetry: Symmetry{
			Symprec:      defaultSymprec,
			AngleDegrees: defaultAngleTolerance,
		},
		VASP: VASP{
			Command:        defaultVASPCommand,
			GammaCommand:   defaultVASPGamma,
			TimeoutSeconds: defaultVASPTimeout,
		},
		QChem: QChem{
			Command:        defaultQChemCommand,
			Threads:        defaultQChemThreads,
			TimeoutSeconds: defaultQChemTimeout,
		},
		Lobster: Lobster{
			Command:        defaultLobsterCommand,
			TimeoutSeconds: defaultLobsterTimeout,
		},
		Bader: Bader{
			Command: defaultBaderCommand,
		},
		MaterialsProject: MaterialsProject{
			BaseURL:        defaultMPBaseURL,
			TimeoutSeconds: defaultMPTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
