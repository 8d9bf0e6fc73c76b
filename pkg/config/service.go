package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/meterhub/p1meter/pkg/pathing"
)

var (
	ActiveInterpreterAPIConfig *InterpreterAPIConfig
	ActiveCollectorConfig      *CollectorConfig
)

func LoadInterpreterAPIConfig() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "interpreter_api.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &InterpreterAPIConfig{
			SerialDevice:  "/dev/ttyUSB0",
			Baudrate:      115200,
			ListenAddress: "0.0.0.0",
			ListenPort:    9039,
		}
		// Create file
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		toml.NewEncoder(cfgFile).Encode(cfg)
		ActiveInterpreterAPIConfig = cfg
		return nil
	}

	// Load existing config
	var config InterpreterAPIConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	ActiveInterpreterAPIConfig = &config
	return nil
}

func LoadCollectorConfig() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "meter_collector.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &CollectorConfig{
			InterpreterAPIHost: "localhost:9039",
			TLSEnabled:         false,
		}
		// Create file
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		toml.NewEncoder(cfgFile).Encode(cfg)
		ActiveCollectorConfig = cfg
		return nil
	}

	// Load existing config
	var config CollectorConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	ActiveCollectorConfig = &config
	return nil
}
