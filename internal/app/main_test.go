package service_test

import (
	"os"
	"testing"

	"github.com/pablo-ross/komornicka100/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}
