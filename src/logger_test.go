package src

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var _ Logger = (*zap.SugaredLogger)(nil)

func TestNopLoggerSatisfiesLogger(t *testing.T) {
	var log Logger = zap.NewNop().Sugar()

	log.Debugw("debug", "k", 1)
	log.Warnw("warn", "k", 2)
	assert.NoError(t, log.Sync())
}
