package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// InitLoggers sets up the info and error loggers with file rotation.
// Logs go to both stdout/stderr and rotated files under logs/.
func InitLoggers() {
	InfoLogger = logrus.New()
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	InfoLogger.SetLevel(logrus.InfoLevel)
	InfoLogger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   "logs/info.log",
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}))

	ErrorLogger = logrus.New()
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	ErrorLogger.SetLevel(logrus.ErrorLevel)
	ErrorLogger.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   "logs/error.log",
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}))
}
