package logger_test

import (
	"os"

	"github.com/wonny/volscan/pkg/logger"
)

// Example shows component-scoped structured logging
func Example() {
	log := logger.NewWithWriter(os.Stderr).Component("scanner")

	log.WithFields(map[string]interface{}{
		"column":   3,
		"accepted": 12,
	}).Info("Channel run completed")
}
