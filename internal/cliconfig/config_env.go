package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (NIGHTSKY_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", os.Getenv("NIGHTSKY_DEVICE"), &cfg.Device)
	s.setString("pong", os.Getenv("NIGHTSKY_PONG"), &cfg.Pong)
	s.setString("log-level", os.Getenv("NIGHTSKY_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("baud", os.Getenv("NIGHTSKY_BAUD"), &cfg.Baud); err != nil {
		return err
	}
	if err := s.setIntFromString("max-records", os.Getenv("NIGHTSKY_MAX_RECORDS"), &cfg.MaxRecords); err != nil {
		return err
	}

	if err := s.setDuration("read-timeout", os.Getenv("NIGHTSKY_READ_TIMEOUT"), &cfg.ReadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reply-timeout", os.Getenv("NIGHTSKY_REPLY_TIMEOUT"), &cfg.ReplyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("NIGHTSKY_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	s.setBoolFromString("parallel", os.Getenv("NIGHTSKY_PARALLEL_PROBE"), &cfg.ParallelProbe)

	return nil
}
