package models

// All lists every content model in migration order.
func All() []interface{} {
	return []interface{}{
		&PersonModel{},
		&ArticleModel{},
		&PostModel{},
		&PageModel{},
		&HomepageModel{},
		&SettingsModel{},
	}
}
