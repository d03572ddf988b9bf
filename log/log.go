package log

import (
	stdlog "log"

	"go.uber.org/zap"
)

//Init installs the global zap logger. Call once at startup before anything
//logs through zap.L().
func Init(debug bool) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		stdlog.Fatal(err)
	}
	zap.ReplaceGlobals(logger)
}

func Fatal(v ...interface{}) {
	stdlog.Fatal(v...)
}
