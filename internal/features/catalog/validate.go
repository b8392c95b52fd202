// Package catalog — validate.go проверяет данные нового товара.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"serotonyl.ru/ethical-karma/internal/common"
)

// Validate проверяет запрос на создание товара.
// Все ограниченные оценки — в [0,100], карма неотрицательная,
// цены укладываются в NUMERIC(12,2), перечисления — только из закрытого списка.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return common.Invalid("name", "name is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return common.Invalid("category", "category is required")
	}
	if err := checkPrice("price", r.Price); err != nil {
		return err
	}
	if r.OriginalPrice != nil {
		if err := checkPrice("original_price", *r.OriginalPrice); err != nil {
			return err
		}
	}
	if r.KarmaPoints < 0 {
		return common.Invalid("karma_points", "karma_points must be non-negative, got %d", r.KarmaPoints)
	}
	if err := checkScore("sustainability_score", r.SustainabilityScore); err != nil {
		return err
	}
	if !r.CarbonFootprint.Valid() {
		return common.Invalid("carbon_footprint", "unknown carbon_footprint %q", r.CarbonFootprint)
	}
	for i, b := range r.EthicalBadges {
		field := fmt.Sprintf("ethical_badges[%d]", i)
		if !b.Category.Valid() {
			return common.Invalid(field+".category", "unknown ethical category %q", b.Category)
		}
		if err := checkScore(field+".score", b.Score); err != nil {
			return err
		}
	}
	return nil
}

// maxPrice — первое значение, не влезающее в NUMERIC(12,2).
var maxPrice = decimal.New(1, 10)

// checkPrice не пускает цены, которые база округлит или отвергнет.
func checkPrice(field string, v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return common.Invalid(field, "%s must be non-negative", field)
	case !v.Equal(v.Round(2)):
		return common.Invalid(field, "%s must have at most 2 decimal places, got %s", field, v)
	case v.GreaterThanOrEqual(maxPrice):
		return common.Invalid(field, "%s must be less than %s", field, maxPrice)
	}
	return nil
}

func checkScore(field string, v int) error {
	if v < 0 || v > 100 {
		return common.Invalid(field, "%s must be between 0 and 100, got %d", field, v)
	}
	return nil
}

// newProduct собирает товар из проверенного запроса.
func newProduct(r CreateRequest) *Product {
	badges := r.EthicalBadges
	if badges == nil {
		badges = []EthicalBadge{}
	}
	alternatives := r.Alternatives
	if alternatives == nil {
		alternatives = []string{}
	}
	return &Product{
		ID:                  common.NewID(),
		Name:                strings.TrimSpace(r.Name),
		Price:               r.Price,
		OriginalPrice:       r.OriginalPrice,
		Description:         r.Description,
		ImageURL:            r.ImageURL,
		Category:            r.Category,
		EthicalBadges:       badges,
		KarmaPoints:         r.KarmaPoints,
		SustainabilityScore: r.SustainabilityScore,
		CarbonFootprint:     r.CarbonFootprint,
		Alternatives:        alternatives,
		CreatedAt:           common.Now(),
	}
}
