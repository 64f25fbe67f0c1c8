package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWhisper() error {
	switch c.Whisper.Engine {
	case EngineAPI:
		if c.Whisper.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/ytscribe/config.toml"
			}
			return fmt.Errorf("whisper.api_key is required when whisper.engine is %q. Set OPENAI_API_KEY env var or edit %s (create with 'ytscribe config init')", EngineAPI, defaultPath)
		}
	case EngineLocal:
		if c.Whisper.LocalBinary == "" {
			return errors.New("whisper.local_binary must be set when whisper.engine is \"local\"")
		}
	default:
		return fmt.Errorf("whisper.engine must be %q or %q, got %q", EngineAPI, EngineLocal, c.Whisper.Engine)
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		return errors.New("whisper.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSummary() error {
	if !c.Summary.Enabled {
		return nil
	}
	if c.Summary.APIKey == "" {
		return errors.New("summary.api_key must be set when summary.enabled is true")
	}
	if c.Summary.Model == "" {
		return errors.New("summary.model must be set when summary.enabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"captions.request_timeout":      c.Captions.RequestTimeout,
		"downloader.download_timeout":   c.Downloader.DownloadTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
