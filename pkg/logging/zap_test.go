// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/nanofs/pkg/logging"
)

func TestZapLogger(t *testing.T) {
	t.Parallel()

	var info, debug bytes.Buffer

	logger := logging.ZapLogger(
		logging.NewLogDestination(&info, zapcore.InfoLevel, logging.WithoutTimestamp()),
		logging.NewLogDestination(&debug, zapcore.DebugLevel, logging.WithoutTimestamp()),
	).With(logging.Component("format"))

	logger.Debug("block written")
	logger.Info("formatted nanofs partition")

	assert.Equal(t, "INFO formatted nanofs partition {\"component\": \"format\"}\n", info.String())
	assert.Equal(t, "DEBUG block written {\"component\": \"format\"}\nINFO formatted nanofs partition {\"component\": \"format\"}\n", debug.String())
}

func TestConsole(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name     string
		debug    bool
		expected string
	}{
		{
			name:     "info",
			expected: "INFO visible\n",
		},
		{
			name:     "debug",
			debug:    true,
			expected: "DEBUG hidden\nINFO visible\n",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := logging.Console(&buf, test.debug)
			logger.Debug("hidden")
			logger.Info("visible")

			assert.Equal(t, test.expected, buf.String())
		})
	}
}

func TestZapLoggerNoDestinations(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { logging.ZapLogger() })
}
