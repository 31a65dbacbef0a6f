package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects the daemon's identity, configuration, resources and
// feature flags, then emits a single structured zerolog event summarising the
// startup state. Secrets are never registered here.
type StartupLogger struct {
	name         string
	version      string
	initDuration time.Duration

	paths    map[string]string
	buckets  map[string]string
	features map[string]bool
	config   map[string]string
	counts   map[string]int64
}

// NewStartupLogger creates a StartupLogger for the given program name.
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:     name,
		paths:    make(map[string]string),
		buckets:  make(map[string]string),
		features: make(map[string]bool),
		config:   make(map[string]string),
		counts:   make(map[string]int64),
	}
}

// Version sets the build version baked into the binary.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// Path registers a filesystem location used by the daemon (photo dir, database).
func (s *StartupLogger) Path(label, path string) *StartupLogger {
	s.paths[label] = path
	return s
}

// Bucket registers an S3 bucket used by the archive mirror.
func (s *StartupLogger) Bucket(label, name string) *StartupLogger {
	s.buckets[label] = name
	return s
}

// Feature registers a boolean feature flag (e.g. "notifications", "archive").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// Count registers a numeric startup fact such as the initial watermark.
func (s *StartupLogger) Count(key string, n int64) *StartupLogger {
	s.counts[key] = n
	return s
}

// InitDuration records how long startup took to complete.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	s.emit(log.Info())
}

func (s *StartupLogger) emit(evt *zerolog.Event) {
	process := zerolog.Dict().
		Str("name", s.name).
		Int("pid", os.Getpid()).
		Str("goVersion", runtime.Version()).
		Str("os", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv(LevelEnvVar))
	if s.version != "" {
		process = process.Str("version", s.version)
	}
	evt = evt.Dict("process", process)

	resources := zerolog.Dict()
	hasResources := false
	if len(s.paths) > 0 {
		resources = resources.Dict("paths", dictFromMap(s.paths))
		hasResources = true
	}
	if len(s.buckets) > 0 {
		resources = resources.Dict("s3Buckets", dictFromMap(s.buckets))
		hasResources = true
	}
	if hasResources {
		evt = evt.Dict("resources", resources)
	}

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	for k, v := range s.counts {
		evt = evt.Int64(k, v)
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Photo uploader started")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
