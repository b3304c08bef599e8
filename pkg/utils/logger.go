package utils

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// GetLogger returns the process-wide logrus logger used by the lower
// scraper/fetcher layers, which log directly through logrus rather than the
// internal/logging multi-adapter Logger used at the service/worker layer.
func GetLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)
