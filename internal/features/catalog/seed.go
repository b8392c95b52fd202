// Package catalog — seed.go содержит демо-каталог, встроенный в бинарник.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed_products.yaml
var seedYAML []byte

// SeedCatalog разбирает встроенный демо-каталог.
// Каждая запись проходит ту же валидацию, что и POST /products.
func SeedCatalog() ([]CreateRequest, error) {
	var reqs []CreateRequest
	if err := yaml.Unmarshal(seedYAML, &reqs); err != nil {
		return nil, fmt.Errorf("ошибка разбора демо-каталога: %w", err)
	}
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			return nil, fmt.Errorf("демо-товар #%d (%s): %w", i, reqs[i].Name, err)
		}
	}
	return reqs, nil
}
