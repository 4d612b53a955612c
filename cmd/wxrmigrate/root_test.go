package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	wxrcore "github.com/wxrmigrate/wxrcore"
)

var errPlainForTest = errors.New("plain error")

func fatalErrorForTest(reason string) error {
	return &wxrcore.FatalError{Component: "markup", Reason: reason}
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}

	require.True(t, names["ingest"])
	require.True(t, names["rewrite"])
	require.True(t, names["serve"])
}

func TestClassifyParseErrorUnwrapsFatalError(t *testing.T) {
	err := fatalErrorForTest("suspicious-delimiter")
	require.Equal(t, "suspicious-delimiter", classifyParseError(err))
	require.Equal(t, "unknown", classifyParseError(errPlainForTest))
}
