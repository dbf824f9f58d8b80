package models

// RunConfig is the per-scenario configuration an agent is started with.
type RunConfig struct {
	// LocationFile is either a GeoJSON file path or "mongo:<collection>".
	LocationFile string `yaml:"locationFile" json:"locationFile" validate:"required"`
	// TimeMultiplier scales route and break durations; 1 is real time, 0.1 is ten times faster.
	TimeMultiplier float64 `yaml:"timeMultiplier" json:"timeMultiplier" validate:"gt=0"`
}
