package service

import (
	"context"

	"go.uber.org/zap"
)

// loggingObjectStore is the default ObjectStorePort when no external object
// storage is configured. Binary attachment handling is outside this service;
// the port only exists so case deletion can cascade cleanup.
type loggingObjectStore struct {
	logger *zap.Logger
}

// NewLoggingObjectStore builds the stub object store.
func NewLoggingObjectStore(logger *zap.Logger) ObjectStorePort {
	return &loggingObjectStore{logger: logger}
}

func (s *loggingObjectStore) DeleteAllForCase(ctx context.Context, caseID string) error {
	s.logger.Info("object store cleanup requested", zap.String("case_id", caseID))
	return nil
}
