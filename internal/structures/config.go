package structures

import (
	"net/http"
	"time"
)

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type HistoryConfig struct {
	BaseDir         string `yaml:"baseDir" validate:"required|unixPath"`
	MaxIORetries    uint64 `yaml:"maxIORetries"`
	ArchiveOldWeeks bool   `yaml:"archiveOldWeeks"`
}

type CollectorConfig struct {
	InputDir string `yaml:"inputDir"`
}

type SchedulerConfig struct {
	CollectInterval time.Duration `yaml:"collectInterval" validate:"required|min:1"`
	PersistInterval time.Duration `yaml:"persistInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	Collector CollectorConfig `yaml:"collector"`
	History   HistoryConfig   `yaml:"history"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	WebServer Server          `yaml:"webServer"`
	Logger    LoggerConfig    `yaml:"logger"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CliFlags carries command-line state into the injector.
// At most one of Once/Report/Classifications selects a one-shot mode;
// with none set the process runs as a daemon.
type CliFlags struct {
	ConfigPath      string
	DebugMode       bool
	Once            bool
	Report          bool
	Classifications string
}

type Route struct {
	Url     string
	Handler http.Handler
}
