package trivia

import "knowledge-quiz/internal/domain"

var categories = []domain.CategoryOption{
	{ID: domain.AnySetting, Name: "Any Category"},
	{ID: "9", Name: "General Knowledge"},
	{ID: "10", Name: "Entertainment: Books"},
	{ID: "11", Name: "Entertainment: Film"},
	{ID: "12", Name: "Entertainment: Music"},
	{ID: "13", Name: "Entertainment: Musicals & Theatres"},
	{ID: "14", Name: "Entertainment: Television"},
	{ID: "15", Name: "Entertainment: Video Games"},
	{ID: "16", Name: "Entertainment: Board Games"},
	{ID: "17", Name: "Science & Nature"},
	{ID: "18", Name: "Science: Computers"},
	{ID: "19", Name: "Science: Mathematics"},
	{ID: "20", Name: "Mythology"},
	{ID: "21", Name: "Sports"},
	{ID: "22", Name: "Geography"},
	{ID: "23", Name: "History"},
	{ID: "24", Name: "Politics"},
	{ID: "25", Name: "Art"},
	{ID: "26", Name: "Celebrities"},
	{ID: "27", Name: "Animals"},
	{ID: "28", Name: "Vehicles"},
	{ID: "29", Name: "Entertainment: Comics"},
	{ID: "30", Name: "Science: Gadgets"},
	{ID: "31", Name: "Entertainment: Japanese Anime & Manga"},
	{ID: "32", Name: "Entertainment: Cartoon & Animations"},
}

var difficulties = []domain.DifficultyOption{
	{ID: domain.AnySetting, Name: "Any Difficulty"},
	{ID: "easy", Name: "Easy"},
	{ID: "medium", Name: "Medium"},
	{ID: "hard", Name: "Hard"},
}

// Categories returns the selectable categories, "any" first.
func Categories() []domain.CategoryOption {
	out := make([]domain.CategoryOption, len(categories))
	copy(out, categories)
	return out
}

// Difficulties returns the selectable difficulty levels, "any" first.
func Difficulties() []domain.DifficultyOption {
	out := make([]domain.DifficultyOption, len(difficulties))
	copy(out, difficulties)
	return out
}

// CategoryName returns the display name for a category id. Unknown ids are
// returned unchanged.
func CategoryName(id string) string {
	if id == "" {
		id = domain.AnySetting
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}
