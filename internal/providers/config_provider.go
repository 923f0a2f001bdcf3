package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "MONITOR_LOG_LEVEL")
	viper.BindEnv("collector.inputDir", "MONITOR_INPUT_DIR")
	viper.BindEnv("history.baseDir", "MONITOR_HISTORY_DIR")
	viper.BindEnv("scheduler.collectInterval", "MONITOR_COLLECT_INTERVAL")
	viper.BindEnv("scheduler.persistInterval", "MONITOR_PERSIST_INTERVAL")
	viper.BindEnv("cache.enabled", "MONITOR_CACHE_ENABLED")
	viper.BindEnv("cache.size", "MONITOR_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "MonitoringTaskAutomation"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
