package journal

// User is a user's profile and daily targets.
// CurrentDate is the day cursor: the user's open logging day.
type User struct {
	Image              string `json:"image"`
	DisplayName        string `json:"display_name"`
	TargetCalories     uint64 `json:"target_calories"`
	TargetFat          uint64 `json:"target_fat"`
	TargetProtein      uint64 `json:"target_protein"`
	TargetCarbohydrate uint64 `json:"target_carbohydrate"`
	CurrentDate        string `json:"current_date"`
}

// UserRecord pairs a profile with the id recovered from its key.
type UserRecord struct {
	ID   string
	User User
}

// JournalEntry is one logged food item. Entries are immutable once written.
type JournalEntry struct {
	Text          string  `json:"text"`
	Quantity      float64 `json:"qty"`
	QuantityUnits string  `json:"qty_units"`
	Calories      uint64  `json:"calories"`
	Carbohydrate  uint64  `json:"carbohydrate"`
	Fat           uint64  `json:"fat"`
	Protein       uint64  `json:"protein"`
	Timestamp     int64   `json:"timestamp"` // epoch milliseconds
}

// EntryRecord pairs an entry with its client-facing id ("<date>.<timestamp>").
type EntryRecord struct {
	ID    string
	Entry JournalEntry
}
