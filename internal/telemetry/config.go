package telemetry

// Config controls OpenTelemetry tracing of runs. Tracing is off unless
// enabled in the configuration file or environment.
type Config struct {
	ServiceName    string `mapstructure:"service_name" yaml:"service_name"`
	ServiceVersion string `mapstructure:"service_version" yaml:"service_version"`
	Environment    string `mapstructure:"environment" yaml:"environment"`
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the host:port of an OTLP/HTTP collector. Without one,
	// spans are sampled and recorded in process only.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the ratio of root spans kept, between 0 and 1.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    "brief-to-plan",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1.0,
	}
}
