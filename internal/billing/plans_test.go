package billing

import (
	"testing"

	"textbehind-be/internal/config"
	"textbehind-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCatalog(t *testing.T) {
	catalog := NewPlanCatalog(config.BillingConfig{
		MonthlyPriceId: "price_m",
		YearlyPriceId:  "price_y",
	})

	monthly, err := catalog.PlanForType("monthly")
	require.NoError(t, err)
	assert.Equal(t, entity.TierMonthly, monthly.Type)
	assert.Equal(t, "price_m", monthly.PriceId)

	yearly, err := catalog.PlanForType("yearly")
	require.NoError(t, err)
	assert.Equal(t, "price_y", yearly.PriceId)

	_, err = catalog.PlanForType("lifetime")
	assert.Error(t, err)
}
