package inventory_test

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/dylan-buck/UAF-Auto/pkg/inventory"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestValidateItemCodes(t *testing.T) {
	svc := inventory.NewService(testLogger())

	result := svc.ValidateItemCodes(context.Background(), &models.ItemValidationRequest{
		ItemCodes: []string{"WIDGET-10", "  GADGET-22  ", "", "   "},
	})

	assert.Equal(t, 4, result.TotalChecked)
	assert.Equal(t, []string{"WIDGET-10", "GADGET-22"}, result.ValidItemCodes)
	assert.Equal(t, []string{"(empty)", "(empty)"}, result.InvalidItemCodes)
	assert.Equal(t, "2 empty item codes filtered out", result.Message)
}

func TestValidateItemCodesAllValid(t *testing.T) {
	svc := inventory.NewService(testLogger())

	result := svc.ValidateItemCodes(context.Background(), &models.ItemValidationRequest{
		ItemCodes: []string{"WIDGET-10"},
	})

	assert.Equal(t, 1, result.TotalChecked)
	assert.Empty(t, result.InvalidItemCodes)
	assert.Empty(t, result.Message)
}
