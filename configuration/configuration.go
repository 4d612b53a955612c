// Package configuration defines the YAML-backed configuration for a
// wxrmigrate run, parsed via Parse(io.Reader). It uses a versioned-parser
// pattern (parser.go) so old configuration shapes can be migrated
// forward, and a no-underscore YAML field-name convention so
// WXRMIGRATE_-prefixed environment variable overrides stay unambiguous.
package configuration

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
)

// Configuration is a versioned wxrmigrate configuration, provided by a YAML
// file and optionally overridden by WXRMIGRATE_-prefixed environment
// variables.
//
// Note that yaml field names should never include _ characters, since this
// is the separator used in environment variable names.
type Configuration struct {
	// Version is the version which defines the format of the rest of the
	// configuration.
	Version Version `yaml:"version"`

	// Log configures the structured logger.
	Log Log `yaml:"log"`

	// ByteStream configures L1's chunking behavior.
	ByteStream ByteStream `yaml:"bytestream,omitempty"`

	// Schema configures which WXR namespace variant the reader prefers
	// when more than one would otherwise match (all six are accepted as
	// equivalent regardless).
	Schema Schema `yaml:"schema,omitempty"`

	// Migration carries the old/new base URLs for a rewrite run.
	Migration Migration `yaml:"migration,omitempty"`

	// PublicSuffix lists extra suffixes to accept beyond
	// golang.org/x/net/publicsuffix's bundled list. The in-text URL sieve
	// does not read it; its host check uses the bundled list only.
	PublicSuffix PublicSuffix `yaml:"publicsuffix,omitempty"`

	// Redis configures the checkpoint package's reentrancy-cursor store.
	Redis Redis `yaml:"redis,omitempty"`

	// HTTP contains configuration parameters for the debug HTTP
	// interface exposed by `wxrmigrate serve`.
	HTTP HTTP `yaml:"http,omitempty"`
}

// ByteStream configures L1.
type ByteStream struct {
	// ChunkSize is the configured size of one pull/append cycle. The
	// ingest and rewrite commands do not read it; they top up the source
	// with fixed 1 MiB pulls.
	ChunkSize int `yaml:"chunksize,omitempty"`

	// ForgetWindow is how many trailing bytes behind the current read
	// offset the buffer retains after a pull, per §5's memory bound.
	ForgetWindow int `yaml:"forgetwindow,omitempty"`
}

// Schema configures L3's namespace preference.
type Schema struct {
	// PreferredNamespace names one of the six accepted wp: namespace
	// URIs. The wxr reader does not read it; it accepts all six variants
	// on input and reports none of them back.
	PreferredNamespace string `yaml:"preferrednamespace,omitempty"`
}

// Migration carries the URL rewrite endpoints for a run.
type Migration struct {
	OldBaseURL string `yaml:"oldbaseurl,omitempty"`
	NewBaseURL string `yaml:"newbaseurl,omitempty"`
}

// PublicSuffix holds public-suffix additions for the in-text URL sieve;
// urlstream.SieveText does not read them.
type PublicSuffix struct {
	// Allow lists additional suffixes (e.g. internal TLDs) to accept
	// alongside the public suffix list bundled with
	// golang.org/x/net/publicsuffix.
	Allow []string `yaml:"allow,omitempty"`
}

// Log represents the configuration for the logging subsystem.
type Log struct {
	// Level is the granularity at which operations are logged.
	Level Loglevel `yaml:"level,omitempty"`

	// Formatter overrides the default formatter with another. Options
	// include "text" and "json".
	Formatter string `yaml:"formatter,omitempty"`

	// Fields allows users to specify static string fields to include in
	// the logger context.
	Fields map[string]interface{} `yaml:"fields,omitempty"`

	// ReportCaller allows the user to configure the log to report the
	// caller.
	ReportCaller bool `yaml:"reportcaller,omitempty"`
}

// HTTP defines configuration for wxrmigrate's debug HTTP interface.
type HTTP struct {
	// Debug configures the debug server (healthz + Prometheus metrics),
	// left disabled by default.
	Debug Debug `yaml:"debug,omitempty"`
}

// Debug defines the configuration for the debug interface.
type Debug struct {
	// Addr specifies the bind address for the debug server.
	Addr string `yaml:"addr,omitempty"`

	// Prometheus configures the Prometheus telemetry endpoint.
	Prometheus Prometheus `yaml:"prometheus,omitempty"`
}

// Prometheus configures the Prometheus telemetry endpoint.
type Prometheus struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// Redis configures the Redis connection pool checkpoint uses to
// persist/retrieve reentrancy cursors, built with gomodule/redigo.
type Redis struct {
	// Addr is the "host:port" of the Redis server.
	Addr string `yaml:"addr,omitempty"`

	// Password authenticates against the Redis server, if set.
	Password string `yaml:"password,omitempty"`

	// DB selects the Redis logical database.
	DB int `yaml:"db,omitempty"`

	// MaxIdle and MaxActive bound the redigo pool's idle and total
	// connection counts.
	MaxIdle   int `yaml:"maxidle,omitempty"`
	MaxActive int `yaml:"maxactive,omitempty"`

	// DialTimeout, ReadTimeout and WriteTimeout bound the pool's
	// per-connection network operations.
	DialTimeout  time.Duration `yaml:"dialtimeout,omitempty"`
	ReadTimeout  time.Duration `yaml:"readtimeout,omitempty"`
	WriteTimeout time.Duration `yaml:"writetimeout,omitempty"`

	// IdleTimeout closes pooled connections that have sat idle longer
	// than this.
	IdleTimeout time.Duration `yaml:"idletimeout,omitempty"`
}

// v0_1Configuration is a Version 0.1 Configuration struct. This is
// currently aliased to Configuration, as it is the current version.
type v0_1Configuration Configuration

// CurrentVersion is the most recent Version that can be parsed.
var CurrentVersion = MajorMinorVersion(0, 1)

// UnmarshalYAML implements the yaml.Unmarshaler interface, accepting a
// bare scalar like 0.1 as well as a quoted string, and validating that the
// major and minor parts parse as unsigned integers.
func (version *Version) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var versionString string
	if err := unmarshal(&versionString); err != nil {
		var versionFloat float64
		if err := unmarshal(&versionFloat); err != nil {
			return err
		}
		versionString = fmt.Sprintf("%g", versionFloat)
	}

	newVersion := Version(versionString)
	if _, err := newVersion.major(); err != nil {
		return err
	}
	if _, err := newVersion.minor(); err != nil {
		return err
	}

	*version = newVersion
	return nil
}

// Loglevel is the level at which operations are logged: error, warn, info,
// or debug.
type Loglevel string

// UnmarshalYAML implements the yaml.Unmarshaler interface, lowercasing the
// string and validating that it names a known level.
func (loglevel *Loglevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	s = strings.ToLower(s)
	switch s {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("invalid loglevel %s, must be one of [error, warn, info, debug]", s)
	}

	*loglevel = Loglevel(s)
	return nil
}

// Parse parses an input configuration YAML document into a Configuration.
//
// Environment variables may be used to override configuration parameters
// other than version, following the scheme below:
// Configuration.Abc may be replaced by the value of WXRMIGRATE_ABC,
// Configuration.Abc.Xyz may be replaced by the value of
// WXRMIGRATE_ABC_XYZ, and so forth.
func Parse(rd io.Reader) (*Configuration, error) {
	in, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	p := NewParser("wxrmigrate", []VersionedParseInfo{
		{
			Version: MajorMinorVersion(0, 1),
			ParseAs: reflect.TypeOf(v0_1Configuration{}),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				v0_1, ok := c.(*v0_1Configuration)
				if !ok {
					return nil, fmt.Errorf("expected *v0_1Configuration, received %#v", c)
				}
				if v0_1.Log.Level == Loglevel("") {
					v0_1.Log.Level = Loglevel("info")
				}
				if v0_1.ByteStream.ChunkSize <= 0 {
					v0_1.ByteStream.ChunkSize = 64 * 1024
				}
				return (*Configuration)(v0_1), nil
			},
		},
	})

	config := new(Configuration)
	if err := p.Parse(in, config); err != nil {
		return nil, err
	}
	return config, nil
}
