package log

import (
	"io"
	"io/ioutil"
	"log"
	"os"
)

var (
	Trace   *log.Logger
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
)

func init() {
	setup(ioutil.Discard, os.Stdout, os.Stdout, os.Stderr)
}

// InitLog configures the package loggers. Trace output is only enabled
// when INKREC_TRACE is set to 1.
func InitLog() {
	var traceHandle io.Writer
	if os.Getenv("INKREC_TRACE") == "1" {
		traceHandle = os.Stdout
	} else {
		traceHandle = ioutil.Discard
	}

	setup(traceHandle, os.Stdout, os.Stdout, os.Stderr)
}

func setup(trace, info, warning, err io.Writer) {
	Trace = log.New(trace, "TRACE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(info, "INFO: ", log.Ldate|log.Ltime)
	Warning = log.New(warning, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(err, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}
