package configuration

import (
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type localConfiguration struct {
	Version       Version `yaml:"version"`
	Log           *Log    `yaml:"log"`
	Notifications []Notif `yaml:"notifications,omitempty"`
}

type Notif struct {
	Name string `yaml:"name"`
}

var expectedConfig = localConfiguration{
	Version: "0.1",
	Log: &Log{
		Formatter: "json",
	},
	Notifications: []Notif{
		{Name: "foo"},
		{Name: "bar"},
		{Name: "car"},
	},
}

const testConfig = `version: "0.1"
log:
  formatter: "text"
notifications:
  - name: "foo"
  - name: "bar"
  - name: "car"`

func TestParserOverwriteInitializedPointer(t *testing.T) {
	config := localConfiguration{}

	os.Setenv("WXRMIGRATE_LOG_FORMATTER", "json")
	defer os.Unsetenv("WXRMIGRATE_LOG_FORMATTER")

	p := NewParser("wxrmigrate", []VersionedParseInfo{
		{
			Version: "0.1",
			ParseAs: reflect.TypeOf(config),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				return c, nil
			},
		},
	})

	err := p.Parse([]byte(testConfig), &config)
	require.NoError(t, err)
	require.Equal(t, expectedConfig, config)
}

const testConfig2 = `version: "0.1"
log:
  formatter: "text"
notifications:
  - name: "val1"
  - name: "val2"
  - name: "car"`

func TestParserOverwriteUninitializedPointer(t *testing.T) {
	config := localConfiguration{}

	os.Setenv("WXRMIGRATE_LOG_FORMATTER", "json")
	defer os.Unsetenv("WXRMIGRATE_LOG_FORMATTER")

	// override only the first two notification values; leave the last
	// unchanged.
	os.Setenv("WXRMIGRATE_NOTIFICATIONS_0_NAME", "foo")
	defer os.Unsetenv("WXRMIGRATE_NOTIFICATIONS_0_NAME")
	os.Setenv("WXRMIGRATE_NOTIFICATIONS_1_NAME", "bar")
	defer os.Unsetenv("WXRMIGRATE_NOTIFICATIONS_1_NAME")

	p := NewParser("wxrmigrate", []VersionedParseInfo{
		{
			Version: "0.1",
			ParseAs: reflect.TypeOf(config),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				return c, nil
			},
		},
	})

	err := p.Parse([]byte(testConfig2), &config)
	require.NoError(t, err)
	require.Equal(t, expectedConfig, config)
}
