package logger

import (
	"io"
	"log"
	"os"
)

var (
	InfoLog  *log.Logger
	ErrorLog *log.Logger
	WarnLog  *log.Logger
	DebugLog *log.Logger
	debug    bool
	logFile  *os.File
)

// InitLogger initializes the logger with a file output in addition to the
// console. Console output goes to stderr: stdout is reserved for record
// streaming and engine passthrough.
func InitLogger(filename string, debugEnabled bool) error {
	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	multiWriter := io.MultiWriter(os.Stderr, logFile)
	initWriters(multiWriter)
	debug = debugEnabled

	return nil
}

func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

// SetDebug toggles DEBUG level output.
func SetDebug(enabled bool) {
	debug = enabled
}

func Init() {
	initWriters(os.Stderr)
}

func initWriters(w io.Writer) {
	InfoLog = log.New(w, "INFO: ", log.Ldate|log.Ltime)
	ErrorLog = log.New(w, "ERROR: ", log.Ldate|log.Ltime)
	WarnLog = log.New(w, "WARN: ", log.Ldate|log.Ltime)
	DebugLog = log.New(w, "DEBUG: ", log.Ldate|log.Ltime)
}

func Info(format string, v ...interface{}) {
	if InfoLog == nil {
		Init()
	}
	InfoLog.Printf(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Error(format string, v ...interface{}) {
	if ErrorLog == nil {
		Init()
	}
	ErrorLog.Printf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

func Warn(format string, v ...interface{}) {
	if WarnLog == nil {
		Init()
	}
	WarnLog.Printf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

func Debug(format string, v ...interface{}) {
	if !debug {
		return
	}
	if DebugLog == nil {
		Init()
	}
	DebugLog.Printf(format, v...)
}

func Debugf(format string, v ...interface{}) {
	Debug(format, v...)
}
