package interfaces

import "time"

// Run modes
const (
	ModeLocal = "local"
	ModeWeb   = "web"
)

const (
	// DefaultDelay is the pause between attempts
	DefaultDelay = 500 * time.Millisecond
	// DefaultRequestTimeout bounds every web request
	DefaultRequestTimeout = 5 * time.Second
	// DefaultReportInterval is how often progress is sampled
	DefaultReportInterval = 100 * time.Millisecond
)

// RunConfig holds the fully resolved configuration handed to the core by a caller.
// Exactly one of the local (hash) or web (form) field groups is meaningful for a run.
type RunConfig struct {
	Mode     string        `mapstructure:"mode" validate:"required,oneof=local web"`
	Wordlist string        `mapstructure:"wordlist" validate:"required"`
	Encoding string        `mapstructure:"encoding"`
	Delay    time.Duration `mapstructure:"delay" validate:"gte=0"`

	// Local mode
	HashFile string `mapstructure:"hash_file"`
	Hash     string `mapstructure:"hash"`

	// Web mode
	URL           string        `mapstructure:"url" validate:"required_if=Mode web"`
	Username      string        `mapstructure:"username" validate:"required_if=Mode web"`
	UserField     string        `mapstructure:"user_field"`
	PassField     string        `mapstructure:"pass_field"`
	SuccessText   string        `mapstructure:"success_text"`
	FailureText   string        `mapstructure:"failure_text"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRate       float64       `mapstructure:"max_rate" validate:"gte=0"`
	ReportEvery   time.Duration `mapstructure:"report_interval" validate:"gte=0"`
	MetricsListen string        `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
}

// NewRunConfig creates a new RunConfig with sensible defaults.
func NewRunConfig(mode string) *RunConfig {
	return &RunConfig{
		Mode:        mode,
		Encoding:    "utf-8",
		Delay:       DefaultDelay,
		Timeout:     DefaultRequestTimeout,
		ReportEvery: DefaultReportInterval,
	}
}

// Validate checks if the configuration is complete and consistent.
func (c *RunConfig) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	switch c.Mode {
	case ModeLocal:
		if c.HashFile == "" && c.Hash == "" {
			return configError("hash_file", "either a hash file or a hash value is required in local mode")
		}
		if c.HashFile != "" && c.Hash != "" {
			return configError("hash_file", "cannot specify both a hash file and a hash value")
		}
	case ModeWeb:
		if c.SuccessText == "" && c.FailureText == "" {
			return configError("success_text", "at least one of success or failure text is required in web mode")
		}
		if (c.UserField == "") != (c.PassField == "") {
			return configError("user_field", "username and password field names must be given together")
		}
	}
	return nil
}
