package store

// Importance bounds for memory facts.
const (
	MinImportance = 0.1
	MaxImportance = 5.0
)

// Value clipping limits, matching the column widths enforced on write.
const (
	maxFactValueLen     = 300
	maxSourceMessageLen = 500
	maxTurnMessageLen   = 2000
)

// MemoryFact is a durable, deduplicated user-specific datum inferred from
// conversation, distinct from raw conversation history.
// Uniqueness: (user_id, memory_type, normalized_value).
type MemoryFact struct {
	ID              int64
	UserID          string
	MemoryType      string
	Value           string
	NormalizedValue string
	Importance      float64
	SourceTurn      string
	SourceMessage   string
	CreatedTs       int64
	LastUsedTs      int64
}

// UpsertMemoryFact specifies a fact write. On conflict the stored importance
// is the max of old and new, and last_used_at is refreshed.
type UpsertMemoryFact struct {
	UserID        string
	MemoryType    string
	Value         string
	Importance    float64
	SourceTurn    string
	SourceMessage string
}

// FindMemoryFacts selects facts for a user, optionally filtered by type.
type FindMemoryFacts struct {
	UserID      string
	MemoryTypes []string
	Limit       int
}

// ClearMemoryResult reports row counts removed by a memory-clear operation.
type ClearMemoryResult struct {
	ConversationDeleted int
	FactsDeleted        int
	ProfileDeleted      int
}

// ClampImportance bounds an importance score to [MinImportance, MaxImportance].
func ClampImportance(value float64) float64 {
	if value < MinImportance {
		return MinImportance
	}
	if value > MaxImportance {
		return MaxImportance
	}
	return value
}
