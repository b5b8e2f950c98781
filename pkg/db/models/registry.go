package models

// All lists every model for sqlite auto-migration in local mode and tests.
func All() []any {
	return []any{
		&Store{},
		&Item{},
		&ListItem{},
		&Trip{},
		&ShoppingListEvent{},
		&PriceHistoryRecord{},
		&PriceSubmission{},
	}
}
