package testlog

import (
	"testing"

	"github.com/danmuck/wavewire/internal/logging"
	"github.com/rs/zerolog/log"
)

func Start(t testing.TB) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("start")
}
