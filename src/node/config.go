package node

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ringmesh/ringmesh/src/common"
	"github.com/sirupsen/logrus"
)

// Config holds the parameters of the node run loop. The stabilization
// interval should exceed the per-request timeout so that rounds against the
// same peer never overlap.
type Config struct {
	StabilizeInterval time.Duration `mapstructure:"stabilize-interval"`
	RequestTimeout    time.Duration `mapstructure:"timeout"`

	// Clock drives the stabilization timer. Tests inject a mock to step
	// through rounds deterministically.
	Clock clock.Clock

	Logger *logrus.Logger
}

// NewConfig ...
func NewConfig(stabilizeInterval time.Duration,
	requestTimeout time.Duration,
	logger *logrus.Logger) *Config {

	return &Config{
		StabilizeInterval: stabilizeInterval,
		RequestTimeout:    requestTimeout,
		Clock:             clock.New(),
		Logger:            logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		StabilizeInterval: 1000 * time.Millisecond,
		RequestTimeout:    300 * time.Millisecond,
		Clock:             clock.New(),
		Logger:            logger,
	}
}

// TestConfig returns a Config with a test logger and a mock clock. Tests
// advance the clock to trigger stabilization rounds.
func TestConfig(t *testing.T, clk clock.Clock) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	if clk != nil {
		config.Clock = clk
	}
	return config
}
