// Package config binds the classifier's runtime options from flags and
// environment variables into a single Options struct; no config file is
// read. It uses the same viper/cobra layering style the CLI
// surface is built on.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Options is the fully-resolved configuration for one run of the CLI or
// server, independent of how each field was supplied.
type Options struct {
	RuleDirs            []string
	ConfidenceThreshold float64
	StopOnMatch         bool
	ParseDates          bool
	IgnoreImprecise     bool
	ExceptEmpty         bool
	ContextFilters      []string
	LangFilters         []string
	CountryFilters      []string
	Limit               int
	DictShare           float64

	LogLevel string

	HTTPAddr    string
	RedisAddr   string
	CacheTTL    time.Duration
	DatabaseDSN string

	RescanSpec       string // cron spec for periodic rescans of a configured source; empty disables
	RescanSourceKind string // "sql", "kafka", or "mqtt"
	RescanQuery      string // SQL query, when RescanSourceKind == "sql"

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	RescanMaxMessages int
	RescanReadTimeout time.Duration
}

// BindFlags registers every Options field as a persistent flag on cmd
// and wires viper to also read the matching environment variable
// (prefixed METACRAFTER_).
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.StringSlice("rules", nil, "rule catalog directories")
	flags.Float64("confidence-threshold", 5.0, "minimum confidence percentage to report a match")
	flags.Bool("stop-on-match", false, "stop evaluating data rules for a field after the first match")
	flags.Bool("parse-dates", true, "enable the date-pattern detection pass")
	flags.Bool("ignore-imprecise", true, "exclude rules flagged imprecise")
	flags.Bool("except-empty", true, "exclude empty values from confidence denominators")
	flags.StringSlice("context", nil, "restrict rules to these context tags")
	flags.StringSlice("lang", nil, "restrict rules to these language tags")
	flags.StringSlice("country", nil, "restrict rules to these country codes")
	flags.Int("limit", 1000, "maximum rows sampled per field")
	flags.Float64("dict-share", 10.0, "unique/non-empty percentage threshold for dictionary detection")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("http-addr", ":8080", "HTTP server listen address")
	flags.String("redis-addr", "", "Redis address for the shared scan report cache")
	flags.String("cache-ttl", "5m", "TTL for cached scan reports, e.g. 90s, 5m, 1h")
	flags.String("database-dsn", "", "DSN for the SQL record source")

	flags.String("rescan-spec", "", `cron spec for periodic rescans of a configured data source, e.g. "@every 1h"; empty disables`)
	flags.String("rescan-source", "", "data source kind for periodic rescans: sql, kafka, or mqtt")
	flags.String("rescan-query", "", "SQL query to rescan when --rescan-source=sql")
	flags.StringSlice("kafka-brokers", nil, "Kafka broker addresses, for --rescan-source=kafka")
	flags.String("kafka-topic", "", "Kafka topic, for --rescan-source=kafka")
	flags.String("kafka-group-id", "metacrafter", "Kafka consumer group id, for --rescan-source=kafka")
	flags.String("mqtt-broker", "", "MQTT broker URL, for --rescan-source=mqtt")
	flags.String("mqtt-topic", "", "MQTT topic, for --rescan-source=mqtt")
	flags.String("mqtt-client-id", "metacrafter", "MQTT client id, for --rescan-source=mqtt")
	flags.Int("rescan-max-messages", 1000, "maximum messages sampled per streaming rescan")
	flags.Duration("rescan-read-timeout", 10*time.Second, "idle timeout for a streaming rescan read")

	v.SetEnvPrefix("metacrafter")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)
}

// FromViper reads every bound key back out of v into an Options value.
func FromViper(v *viper.Viper) Options {
	return Options{
		RuleDirs:            v.GetStringSlice("rules"),
		ConfidenceThreshold: v.GetFloat64("confidence-threshold"),
		StopOnMatch:         v.GetBool("stop-on-match"),
		ParseDates:          v.GetBool("parse-dates"),
		IgnoreImprecise:     v.GetBool("ignore-imprecise"),
		ExceptEmpty:         v.GetBool("except-empty"),
		ContextFilters:      v.GetStringSlice("context"),
		LangFilters:         v.GetStringSlice("lang"),
		CountryFilters:      v.GetStringSlice("country"),
		Limit:               v.GetInt("limit"),
		DictShare:           v.GetFloat64("dict-share"),
		LogLevel:            v.GetString("log-level"),
		HTTPAddr:            v.GetString("http-addr"),
		RedisAddr:           v.GetString("redis-addr"),
		CacheTTL:            cacheTTL(v),
		DatabaseDSN:         v.GetString("database-dsn"),

		RescanSpec:       v.GetString("rescan-spec"),
		RescanSourceKind: v.GetString("rescan-source"),
		RescanQuery:      v.GetString("rescan-query"),

		KafkaBrokers: v.GetStringSlice("kafka-brokers"),
		KafkaTopic:   v.GetString("kafka-topic"),
		KafkaGroupID: v.GetString("kafka-group-id"),

		MQTTBroker:   v.GetString("mqtt-broker"),
		MQTTTopic:    v.GetString("mqtt-topic"),
		MQTTClientID: v.GetString("mqtt-client-id"),

		RescanMaxMessages: v.GetInt("rescan-max-messages"),
		RescanReadTimeout: v.GetDuration("rescan-read-timeout"),
	}
}

// cacheTTL accepts either a Go duration string ("5m") or a bare number
// of seconds for METACRAFTER_CACHE_TTL, so the flag stays convenient
// on the command line and forgiving when set through the environment.
func cacheTTL(v *viper.Viper) time.Duration {
	raw := v.Get("cache-ttl")
	if secs, err := cast.ToIntE(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
