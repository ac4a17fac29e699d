package enums

import "fmt"

// MenuCategory classifies a menu item for reporting breakdowns.
type MenuCategory string

const (
	MenuCategoryMainDish MenuCategory = "main_dish"
	MenuCategorySnack    MenuCategory = "snack"
	MenuCategoryBeverage MenuCategory = "beverage"
	MenuCategoryDessert  MenuCategory = "dessert"
)

var validMenuCategories = []MenuCategory{
	MenuCategoryMainDish,
	MenuCategorySnack,
	MenuCategoryBeverage,
	MenuCategoryDessert,
}

// String implements fmt.Stringer.
func (m MenuCategory) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MenuCategory.
func (m MenuCategory) IsValid() bool {
	for _, candidate := range validMenuCategories {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMenuCategory converts raw input into a MenuCategory.
func ParseMenuCategory(value string) (MenuCategory, error) {
	for _, candidate := range validMenuCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid menu category %q", value)
}
