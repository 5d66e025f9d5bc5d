package launcher

import "path/filepath"

// Defaults bundles the baseline values flags and deployment files override.
type Defaults struct {
	// DataDir is the default checkpoint location.
	DataDir string

	// Deployments maps network name to the built-in chief deployment.
	Deployments map[string]DeploymentConfig
}

// DefaultConfig returns the built-in defaults, including the chief
// deployments for the networks the keeper knows out of the box.
func DefaultConfig() Defaults {
	return Defaults{
		DataDir: filepath.Join("~", ".chief-keeper"),
		Deployments: map[string]DeploymentConfig{
			"mainnet": {
				// MCD_ADM, the live DS-Chief 1.2
				Chief:           "0x0a3f6849f78076aefaDf113F5BED87720274dDC0",
				DeploymentBlock: 11327777,
			},
			"goerli": {
				Chief:           "0x33Ed584fc655b08b2bca45E1C5b5637F2d58491e",
				DeploymentBlock: 5366919,
			},
		},
	}
}
