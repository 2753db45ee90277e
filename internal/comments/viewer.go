package comments

// Viewer is the actor behind a request. It is passed explicitly through every call.
type Viewer struct {
	UserID        string
	Authenticated bool
	Guest         bool
	Admin         bool
}

// Anonymous is a reader with no session at all.
var Anonymous = Viewer{}

// CanWrite reports whether the viewer may mutate comments or reactions.
func (v Viewer) CanWrite() bool {
	return v.Authenticated && !v.Guest && v.UserID != ""
}

// ReaderID is the id used to attribute reactions on read paths. Guests read as nobody.
func (v Viewer) ReaderID() string {
	if !v.CanWrite() {
		return ""
	}
	return v.UserID
}
