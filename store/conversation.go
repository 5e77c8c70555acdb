package store

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry of the append-only per-user conversation log.
type ConversationTurn struct {
	ID        int64
	UserID    string
	Role      Role
	Message   string
	CreatedTs int64
}

// FindConversationTurns selects recent turns for a user.
type FindConversationTurns struct {
	UserID string
	Limit  int
}

// ValidRole normalizes a role value, defaulting to user.
func ValidRole(value string) Role {
	if Role(NormalizeText(value)) == RoleAssistant {
		return RoleAssistant
	}
	return RoleUser
}
