package workflow

import (
	"time"

	"github.com/mmdatafocus/marketplace_backend/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("marketplace_backend/workflow")

// overridable in tests
var timeNow = func() time.Time { return time.Now().UTC() }

func loggerOrDefault(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	return config.GetLogger()
}
