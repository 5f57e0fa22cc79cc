// Package domain holds domain primitives shared across features: typed
// identifiers and value enums parsed at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

// Typed UUID wrappers keep identifiers from being accidentally swapped at
// compile time. Construct via the Parse helpers at trust boundaries; direct
// casting bypasses validation.
type (
	// UserID identifies a member. Issued by the identity collaborator.
	UserID uuid.UUID
	// ActivityID identifies an activity document.
	ActivityID uuid.UUID
	// RegistrationID identifies a participant registration within an activity.
	RegistrationID uuid.UUID
	// LedgerID identifies an attendance ledger.
	LedgerID uuid.UUID
	// RecordID identifies an attendance record within a ledger.
	RecordID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ActivityID) String() string     { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id LedgerID) String() string       { return uuid.UUID(id).String() }
func (id RecordID) String() string       { return uuid.UUID(id).String() }

// MarshalText/UnmarshalText keep the typed wrappers JSON- and text-friendly:
// defined types do not inherit uuid.UUID's encoding methods, and without
// these the IDs would serialize as raw byte arrays.

func (id UserID) MarshalText() ([]byte, error)         { return marshalID(uuid.UUID(id)) }
func (id ActivityID) MarshalText() ([]byte, error)     { return marshalID(uuid.UUID(id)) }
func (id RegistrationID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }
func (id LedgerID) MarshalText() ([]byte, error)       { return marshalID(uuid.UUID(id)) }
func (id RecordID) MarshalText() ([]byte, error)       { return marshalID(uuid.UUID(id)) }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = UserID(u)
	return err
}

func (id *ActivityID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ActivityID(u)
	return err
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = RegistrationID(u)
	return err
}

func (id *LedgerID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = LedgerID(u)
	return err
}

func (id *RecordID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = RecordID(u)
	return err
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LedgerID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", what)
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseActivityID validates and returns an ActivityID.
func ParseActivityID(s string) (ActivityID, error) {
	u, err := parseUUID(s, "activity id")
	return ActivityID(u), err
}

// ParseRegistrationID validates and returns a RegistrationID.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s, "registration id")
	return RegistrationID(u), err
}

// ParseLedgerID validates and returns a LedgerID.
func ParseLedgerID(s string) (LedgerID, error) {
	u, err := parseUUID(s, "ledger id")
	return LedgerID(u), err
}

// ParseRecordID validates and returns a RecordID.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record id")
	return RecordID(u), err
}

// NewUserID generates a fresh UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewActivityID generates a fresh ActivityID.
func NewActivityID() ActivityID { return ActivityID(uuid.New()) }

// NewRegistrationID generates a fresh RegistrationID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewLedgerID generates a fresh LedgerID.
func NewLedgerID() LedgerID { return LedgerID(uuid.New()) }

// NewRecordID generates a fresh RecordID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }
