// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"

	"go.uber.org/zap"
)

// DataCleaner handles missing-value normalization and exact-duplicate
// elimination during the ingress process. Every stage returns a new dataset;
// inputs are never mutated.
type DataCleaner struct {
	logger        *zap.Logger
	missingTokens map[string]struct{}
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, missingTokens []string) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	tokens := make(map[string]struct{}, len(missingTokens))
	for _, token := range missingTokens {
		tokens[token] = struct{}{}
	}

	return &DataCleaner{
		logger:        logger.Named("cleaner"),
		missingTokens: tokens,
	}, nil
}
