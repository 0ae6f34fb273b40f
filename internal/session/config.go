package session

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the session's configuration surface. Timers accept duration
// strings ("30s") when loaded from file.
type Config struct {
	// BeginString is the protocol revision token, e.g. "FIX.4.4".
	BeginString  string `mapstructure:"begin_string"`
	SenderCompID string `mapstructure:"sender_comp_id"`
	TargetCompID string `mapstructure:"target_comp_id"`

	// Initiator selects who sends the first Logon on connect.
	Initiator bool `mapstructure:"initiator"`

	HeartbeatInterval  time.Duration `mapstructure:"heartbeat_interval"`
	LogonTimeout       time.Duration `mapstructure:"logon_timeout"`
	LogoutTimeout      time.Duration `mapstructure:"logout_timeout"`
	TestRequestTimeout time.Duration `mapstructure:"test_request_timeout"`

	// MaxGap bounds the recovery buffer. A detected gap wider than this is a
	// protocol violation rather than a recovery cycle.
	MaxGap int `mapstructure:"max_gap"`

	// ResetOnLogon restarts both sequence counters at 1 for this logon.
	ResetOnLogon bool `mapstructure:"reset_on_logon"`
}

// SessionID is the durable identity messages are logged under. It spans
// physical connections, so counters survive reconnects.
func (c Config) SessionID() string {
	return c.SenderCompID + "->" + c.TargetCompID
}

// Validate fills defaulted timers and rejects unusable configuration.
func (c *Config) Validate() error {
	if c.BeginString == "" {
		return fmt.Errorf("session config: begin_string is required")
	}
	if c.SenderCompID == "" || c.TargetCompID == "" {
		return fmt.Errorf("session config: sender_comp_id and target_comp_id are required")
	}
	if c.SenderCompID == c.TargetCompID {
		return fmt.Errorf("session config: sender and target must differ")
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.LogonTimeout <= 0 {
		c.LogonTimeout = 10 * time.Second
	}
	if c.LogoutTimeout <= 0 {
		c.LogoutTimeout = 5 * time.Second
	}
	if c.TestRequestTimeout <= 0 {
		c.TestRequestTimeout = c.HeartbeatInterval
	}
	if c.MaxGap <= 0 {
		c.MaxGap = 1024
	}
	return nil
}

// LoadConfig reads a session config file with viper. Missing optional keys
// take the Validate defaults.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("session config: read %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("session config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
