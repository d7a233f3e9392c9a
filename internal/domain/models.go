package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is keyed by the platform-assigned Telegram id. Users are discovered
// opportunistically from messages and never deleted.
type User struct {
	ID        int64
	Username  *string
	FirstName *string
	LastName  *string
}

type Group struct {
	ID   int64
	Name string
	Kind string // private, group, supergroup or channel
}

// MessageRef locates a message the bot posted to a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// DebtList is a named collection of amounts owed to one payee. It is pending
// until the owner confirms it, then acquires a destination group and the
// location of the message posted there. LastUpdated is bumped whenever any
// child Debt changes, never by a repost.
type DebtList struct {
	ID          int64
	OwnerID     int64
	GroupID     *int64
	Name        string
	PhoneNumber string
	Pending     bool
	Message     *MessageRef
	LastUpdated time.Time
}

// Routed reports whether the list has a destination group. The message ref
// only says where the current copy sits, and may be momentarily absent
// between a failed repost and the next refresh tick.
func (l DebtList) Routed() bool { return l.GroupID != nil }

// Debt is a single participant's share of a DebtList. OwedBy is the handle
// without the "@" prefix; at most one Debt exists per (list, OwedBy) pair.
type Debt struct {
	ID     int64
	ListID int64
	OwedBy string
	Amount decimal.Decimal
	Paid   bool
}

// DebtListDraft is the parser's output before anything is persisted.
// Duplicate identities are allowed here; persistence upserts them away.
type DebtListDraft struct {
	Name        string
	PhoneNumber string
	Entries     []DebtEntry
}

type DebtEntry struct {
	OwedBy string
	Amount decimal.Decimal
}
