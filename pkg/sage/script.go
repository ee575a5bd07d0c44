// Package sage manages sessions against the Sage 100 Business Object
// Interface through its scripting host. The host is treated as an opaque
// external system: calls return a numeric code where 0 signals failure and
// the detail lives behind a side-channel error message accessor.
package sage

// Driver opens script engines against the automation host
type Driver interface {
	// Open initializes a script engine rooted at the Sage server path
	Open(path string) (Engine, error)
}

// Engine is one scripting-host instance. Engines are not safe for
// concurrent use; each belongs to exactly one session handle.
type Engine interface {
	// NewSession creates the session object used for authentication and
	// company context
	NewSession() (Session, error)

	// NewObject creates a business or service object bound to a session.
	// A failure here usually means the engine itself is dead.
	NewObject(name string, session Session) (Object, error)

	// Release frees the underlying engine resources
	Release()
}

// Session is the authentication and context surface of the host
type Session interface {
	SetUser(user, password string) int
	SetCompany(company string) int
	SetModule(module string) int
	SetDate(module, date string) int
	LastErrorMsg() string
	Release()
}

// Object is the call contract shared by every business and service object:
// cursor navigation, field access, and write, all returning 1 on success
// and 0 on failure with the message behind LastErrorMsg. Iteration is
// cursor-based and unindexed; there is no query pushdown.
type Object interface {
	SetKey(key string) int
	SetField(name string, value any) int
	GetField(name string) (string, int)
	MoveFirst() int
	MoveNext() int
	Write() int

	// Lines returns the nested line collection on document objects, or
	// false when the object has none
	Lines() (Object, bool)

	// AddLine starts a new line on a line collection
	AddLine() int

	// NextDocumentNumber reserves the next document number on document
	// objects
	NextDocumentNumber() (string, int)

	LastErrorMsg() string
	Release()
}
