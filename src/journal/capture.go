package journal

import (
	"context"
	"runtime/debug"

	logger "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"tradepulse/src/model"
)

// capture logs err and stores it as an Exception row. It never fails.
func (s *Service) capture(
	ctx context.Context,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {

	if err == nil {
		return
	}

	logger.WithFields(map[string]interface{}{
		"service": s.config.ServiceName,
		"module":  "journal",
		"method":  method,
		"level":   level,
	}).WithError(err).Error("System exception captured")

	if s.exceptions == nil {
		return
	}

	exc := &model.Exception{
		Service:   s.config.ServiceName,
		Module:    "journal",
		Method:    method,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     level,
		Context:   datatypes.JSONMap(contextData),
		CreatedAt: s.now(),
	}

	// The request context may already be gone; the record still has to land.
	if e := s.exceptions.Create(context.WithoutCancel(ctx), exc); e != nil {
		logger.WithError(e).Error("Failed to persist exception")
	}
}
