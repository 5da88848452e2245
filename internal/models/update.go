package models

// UpdateKind enumerates the corrections a user can apply to a posted
// transaction from the chat message.
type UpdateKind int

const (
	UpdateUncategorize UpdateKind = iota
	UpdateUnapprove
	UpdateUnknown
	UpdateSetPayee
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateUncategorize:
		return "uncategorize"
	case UpdateUnapprove:
		return "unapprove"
	case UpdateUnknown:
		return "unknown"
	case UpdateSetPayee:
		return "set_payee"
	default:
		return "invalid"
	}
}

// TransactionUpdate is the tagged union over the correction variants.
// Payee is set only for UpdateSetPayee.
type TransactionUpdate struct {
	Kind  UpdateKind
	Payee string
}
