package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type IngredientLineTestSuite struct {
	suite.Suite
}

func (suite *IngredientLineTestSuite) TestParseIngredientLine() {
	cases := []struct {
		name     string
		line     string
		want     string
		quantity *float64
		unit     string
	}{
		{"MixedNumberWithUnit", "2 1/2 cups all-purpose flour, sifted", "flour", floatPtr(2.5), "cups"},
		{"SizeWordActsAsUnit", "2 large eggs", "eggs", floatPtr(2), "large"},
		{"QuantityWithoutUnit", "3 eggs", "eggs", floatPtr(3), ""},
		{"FractionWithParenthetical", "1/2 cup (packed) brown sugar", "sugar", floatPtr(0.5), "cup"},
		{"DecimalWithDescriptors", "1.5 lbs Boneless Skinless Chicken Breast", "chicken breast", floatPtr(1.5), "lbs"},
		{"NoQuantity", "Salt to taste", "salt to taste", nil, ""},
		{"AllDescriptorsKeepLastWord", "2 cups chopped fresh", "fresh", floatPtr(2), "cups"},
		{"ZeroQuantityIsUnset", "0 cups water", "water", nil, "cups"},
		{"CanSize", "1 (14 oz) can tomatoes", "can tomatoes", floatPtr(1), ""},
	}

	for _, tc := range cases {
		suite.Run(tc.name+"_ShouldParse", func() {
			// Act
			parsed := ParseIngredientLine(tc.line)

			// Assert
			assert.Equal(suite.T(), tc.want, parsed.Name)
			assert.Equal(suite.T(), tc.unit, parsed.Unit)
			assert.Equal(suite.T(), tc.line, parsed.RawText)
			if tc.quantity == nil {
				assert.Nil(suite.T(), parsed.Quantity)
				return
			}
			require.NotNil(suite.T(), parsed.Quantity)
			assert.InDelta(suite.T(), *tc.quantity, *parsed.Quantity, 1e-9)
		})
	}
}

func (suite *IngredientLineTestSuite) TestParseQuantity() {
	suite.Run("ValidForms_ShouldParse", func() {
		assert.InDelta(suite.T(), 3.0, *ParseQuantity("3"), 1e-9)
		assert.InDelta(suite.T(), 1.25, *ParseQuantity("1.25"), 1e-9)
		assert.InDelta(suite.T(), 0.75, *ParseQuantity("3/4"), 1e-9)
		assert.InDelta(suite.T(), 1.5, *ParseQuantity("1 1/2"), 1e-9)
	})

	suite.Run("InvalidForms_ShouldBeNil", func() {
		assert.Nil(suite.T(), ParseQuantity("1/0"))
		assert.Nil(suite.T(), ParseQuantity("abc"))
		assert.Nil(suite.T(), ParseQuantity("0"))
		assert.Nil(suite.T(), ParseQuantity(""))
	})
}

func (suite *IngredientLineTestSuite) TestCleanName() {
	suite.Run("SingleDescriptor_ShouldBeKept", func() {
		assert.Equal(suite.T(), "fresh", CleanName("fresh"))
	})

	suite.Run("DescriptorsRemoved_ShouldKeepCase", func() {
		assert.Equal(suite.T(), "Parsley", CleanName("Finely Chopped Parsley"))
	})
}

func (suite *IngredientLineTestSuite) TestDisplayText() {
	link := RecipeIngredient{IngredientName: "flour", Quantity: floatPtr(1.5), Unit: "cups", RawText: "1 1/2 cups flour"}

	suite.Run("UnitFactor_ShouldReturnRawText", func() {
		assert.Equal(suite.T(), "1 1/2 cups flour", link.DisplayText(1))
	})

	suite.Run("ScaledWithUnit_ShouldRebuildLine", func() {
		assert.Equal(suite.T(), "3 cups flour", link.DisplayText(2))
	})

	suite.Run("ScaledWithoutUnit_ShouldReturnRawText", func() {
		eggs := RecipeIngredient{IngredientName: "eggs", Quantity: floatPtr(3), RawText: "3 eggs"}
		assert.Equal(suite.T(), "3 eggs", eggs.DisplayText(2))
	})
}

func TestIngredientLineTestSuite(t *testing.T) {
	suite.Run(t, new(IngredientLineTestSuite))
}
