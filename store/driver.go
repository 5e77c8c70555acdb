package store

import "context"

// Driver is the contract every database backend implements.
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)
	UpsertUserProfile(ctx context.Context, profile *UserProfile) (*UserProfile, error)

	AppendConversationTurn(ctx context.Context, turn *ConversationTurn) (int64, error)
	ListConversationTurns(ctx context.Context, find *FindConversationTurns) ([]*ConversationTurn, error)

	UpsertMemoryFact(ctx context.Context, upsert *UpsertMemoryFact) (*MemoryFact, error)
	ListMemoryFacts(ctx context.Context, find *FindMemoryFacts) ([]*MemoryFact, error)
	TouchMemoryFacts(ctx context.Context, userID string, ids []int64, ts int64) error

	ClearUserMemory(ctx context.Context, userID string, clearProfile bool) (*ClearMemoryResult, error)
}
