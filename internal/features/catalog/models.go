// Package catalog управляет каталогом товаров с этическими метками.
// models.go описывает товар, бейджи и закрытые перечисления.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EthicalCategory — категория этического бейджа.
type EthicalCategory string

const (
	CategoryOrganic       EthicalCategory = "organic"
	CategoryFairTrade     EthicalCategory = "fair_trade"
	CategorySustainable   EthicalCategory = "sustainable"
	CategoryEcoFriendly   EthicalCategory = "eco_friendly"
	CategoryCarbonNeutral EthicalCategory = "carbon_neutral"
)

// Valid сообщает, входит ли значение в закрытый список категорий.
func (c EthicalCategory) Valid() bool {
	switch c {
	case CategoryOrganic, CategoryFairTrade, CategorySustainable, CategoryEcoFriendly, CategoryCarbonNeutral:
		return true
	}
	return false
}

// CarbonFootprint — грубая порядковая оценка углеродного следа.
type CarbonFootprint string

const (
	FootprintVeryLow  CarbonFootprint = "Very Low"
	FootprintLow      CarbonFootprint = "Low"
	FootprintMedium   CarbonFootprint = "Medium"
	FootprintHigh     CarbonFootprint = "High"
	FootprintVeryHigh CarbonFootprint = "Very High"
)

func (f CarbonFootprint) Valid() bool {
	switch f {
	case FootprintVeryLow, FootprintLow, FootprintMedium, FootprintHigh, FootprintVeryHigh:
		return true
	}
	return false
}

// EthicalBadge — оценённый (0–100) сертификат на товаре.
type EthicalBadge struct {
	Category    EthicalCategory `json:"category" yaml:"category"`
	Score       int             `json:"score" yaml:"score"`
	Description string          `json:"description" yaml:"description"`
}

// Product — товар каталога. После создания не меняется.
type Product struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Price               decimal.Decimal  `json:"price"`
	OriginalPrice       *decimal.Decimal `json:"original_price"`
	Description         string           `json:"description"`
	ImageURL            string           `json:"image_url"`
	Category            string           `json:"category"`
	EthicalBadges       []EthicalBadge   `json:"ethical_badges"`
	KarmaPoints         int              `json:"karma_points"` // Награда за покупку, не баланс пользователя
	SustainabilityScore int              `json:"sustainability_score"`
	CarbonFootprint     CarbonFootprint  `json:"carbon_footprint"`
	Alternatives        []string         `json:"alternatives"` // id других товаров, существование не проверяется
	CreatedAt           time.Time        `json:"created_at"`
}

// CreateRequest — данные для создания товара (тело POST /products).
type CreateRequest struct {
	Name                string           `json:"name" yaml:"name"`
	Price               decimal.Decimal  `json:"price" yaml:"price"`
	OriginalPrice       *decimal.Decimal `json:"original_price" yaml:"original_price"`
	Description         string           `json:"description" yaml:"description"`
	ImageURL            string           `json:"image_url" yaml:"image_url"`
	Category            string           `json:"category" yaml:"category"`
	EthicalBadges       []EthicalBadge   `json:"ethical_badges" yaml:"ethical_badges"`
	KarmaPoints         int              `json:"karma_points" yaml:"karma_points"`
	SustainabilityScore int              `json:"sustainability_score" yaml:"sustainability_score"`
	CarbonFootprint     CarbonFootprint  `json:"carbon_footprint" yaml:"carbon_footprint"`
	Alternatives        []string         `json:"alternatives" yaml:"alternatives"`
}

// MarshalJSON отдаёт цены JSON-числом (4.99), а не строкой "4.99".
// Обратно decimal.Decimal читает оба варианта.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	var original *json.Number
	if p.OriginalPrice != nil {
		n := json.Number(p.OriginalPrice.String())
		original = &n
	}
	return json.Marshal(struct {
		plain
		Price         json.Number  `json:"price"`
		OriginalPrice *json.Number `json:"original_price"`
	}{plain(p), json.Number(p.Price.String()), original})
}
