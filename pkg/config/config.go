package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App holds runtime configuration derived from env vars or files.
type App struct {
	Environment string
	LogLevel    string
	LogEncoding string
	APIPort     string
	CORSOrigins []string

	// StoreDriver is "sqlite" or "mysql".
	StoreDriver string
	StoreDSN    string

	// ResultSink selects where check results go: "kafka", "nats" or "none".
	ResultSink   string
	KafkaBrokers string
	KafkaTopic   string
	NATSURL      string
	NATSSubject  string

	RemoteVersionURL      string
	InstalledVersionsFile string
	TargetIdentifiers     []string
	SelfIdentifier        string

	CheckTimeout         time.Duration
	AlarmTick            time.Duration
	ReachabilityInterval time.Duration
	ExactAlarmsAllowed   bool
}

// KafkaBrokerList splits KafkaBrokers on commas; empty means publishing is disabled.
func (a App) KafkaBrokerList() []string {
	return splitList(a.KafkaBrokers)
}

var defaultTargets = []string{
	"com.nianticlabs.pokemongo",
	"com.pgsharp.pokemongo",
	"com.nianticproject.holoholo",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "")
	v.SetDefault("api_port", "8080")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("store_driver", "sqlite")
	v.SetDefault("store_dsn", "")
	v.SetDefault("database_url", "")
	v.SetDefault("result_sink", "kafka")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "version-check-results")
	v.SetDefault("nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("nats_subject", "version.checks.completed")
	v.SetDefault("remote_version_url", "https://api.pgsharp.com/version")
	v.SetDefault("installed_versions_file", "installed.yaml")
	v.SetDefault("target_identifiers", strings.Join(defaultTargets, ","))
	v.SetDefault("self_identifier", "com.jphat.pgsharpchecker")
	v.SetDefault("check_timeout", 30*time.Second)
	v.SetDefault("alarm_tick", time.Second)
	v.SetDefault("reachability_interval", 15*time.Second)
	v.SetDefault("exact_alarms_allowed", true)
}

// Load reads an optional YAML file and overlays environment variables.
// A missing file is not an error; a malformed one is.
func Load(cfgFile string) (App, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("config_file", "CONFIG_FILE")

	if cfgFile == "" {
		cfgFile = v.GetString("config_file")
	}
	var readErr error
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				readErr = err
			}
		}
	}

	dsn := v.GetString("store_dsn")
	if dsn == "" {
		dsn = v.GetString("database_url")
	}
	driver := strings.ToLower(v.GetString("store_driver"))
	if dsn == "" && driver == "sqlite" {
		dsn = "file:version-watch.db?_pragma=busy_timeout(5000)"
	}

	return App{
		Environment:           v.GetString("environment"),
		LogLevel:              v.GetString("log_level"),
		LogEncoding:           v.GetString("log_encoding"),
		APIPort:               v.GetString("api_port"),
		CORSOrigins:           stringList(v, "cors_origins"),
		StoreDriver:           driver,
		StoreDSN:              dsn,
		ResultSink:            strings.ToLower(v.GetString("result_sink")),
		KafkaBrokers:          v.GetString("kafka_brokers"),
		KafkaTopic:            v.GetString("kafka_topic"),
		NATSURL:               v.GetString("nats_url"),
		NATSSubject:           v.GetString("nats_subject"),
		RemoteVersionURL:      v.GetString("remote_version_url"),
		InstalledVersionsFile: v.GetString("installed_versions_file"),
		TargetIdentifiers:     stringList(v, "target_identifiers"),
		SelfIdentifier:        v.GetString("self_identifier"),
		CheckTimeout:          v.GetDuration("check_timeout"),
		AlarmTick:             v.GetDuration("alarm_tick"),
		ReachabilityInterval:  v.GetDuration("reachability_interval"),
		ExactAlarmsAllowed:    v.GetBool("exact_alarms_allowed"),
	}, readErr
}

// stringList accepts either a YAML sequence or a comma-separated string.
func stringList(v *viper.Viper, key string) []string {
	if items, ok := v.Get(key).([]interface{}); ok {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return splitList(v.GetString(key))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
