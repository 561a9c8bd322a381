package eventode

import "fmt"

// Config modifies an Integrator's behaviour. Zero value is invalid;
// use DefaultConfig and override fields as needed.
type Config struct {
	Log struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"log"`
	Evaluations struct {
		Max int `yaml:"max"`
	} `yaml:"evaluations"`
	Events struct {
		DefaultMaxIterations int `yaml:"defaultMaxIterations"`
	} `yaml:"events"`
}

// DefaultConfig returns a Config with the library's defaults: no
// logging, unbounded evaluations, events.defaultMaxIterations = 100.
// That last value is only validated by NewIntegrator; the integrator
// passes each EventDetector's own MaxIterations to its solver and does
// not substitute this default for it.
func DefaultConfig() Config {
	var cfg Config
	cfg.Evaluations.Max = -1
	cfg.Events.DefaultMaxIterations = 100
	return cfg
}

func verifyConfig(cfg Config) error {
	if cfg.Events.DefaultMaxIterations < 1 {
		return fmt.Errorf("config: events.defaultMaxIterations must be at least 1")
	}
	return nil
}
