package logging

import (
	"os"

	"go.uber.org/zap"
)

// Init builds the process logger and installs it as zap's global so
// packages can grab it with zap.L(). LOG_LEVEL=debug switches to the
// development config.
func Init() *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if os.Getenv("LOG_LEVEL") == "debug" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	return log
}
