// Package inventory performs pass-through validation of item codes.
// The item master object is not reachable through the scripting host on
// this installation, so validation is limited to format checks; order
// entry is the authority on whether an item actually exists.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/dylan-buck/UAF-Auto/pkg/models"
)

type Service struct {
	logger ectologger.Logger
}

func NewService(logger ectologger.Logger) *Service {
	return &Service{logger: logger}
}

// ValidateItemCodes filters empty and whitespace-only item codes
func (s *Service) ValidateItemCodes(ctx context.Context, req *models.ItemValidationRequest) *models.ItemValidationResult {
	result := &models.ItemValidationResult{
		TotalChecked:     len(req.ItemCodes),
		ValidItemCodes:   []string{},
		InvalidItemCodes: []string{},
	}

	for _, code := range req.ItemCodes {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			result.InvalidItemCodes = append(result.InvalidItemCodes, "(empty)")
			continue
		}
		result.ValidItemCodes = append(result.ValidItemCodes, trimmed)
	}

	if n := len(result.InvalidItemCodes); n > 0 {
		result.Message = fmt.Sprintf("%d empty item codes filtered out", n)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"method":  "ValidateItemCodes",
		"checked": result.TotalChecked,
		"valid":   len(result.ValidItemCodes),
	}).Debug("Validated item codes")
	return result
}
