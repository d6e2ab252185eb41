package model

// Actor identifies who is allowed to push to a protected branch. Team and
// User actors are produced by the projector; App actors only ever appear on
// the observed side and are never constructed by declared-state code
// (invariant B5) -- they are copied across from the observed protection
// during comparison instead.
type Actor interface {
	isActor()
	// Kind returns a human label ("team", "user" or "app") for rendering and
	// logging; the core itself never branches on it.
	Kind() string
}

// TeamActor grants push access to every member of a Provider team.
type TeamActor struct {
	Org  string
	Name string
}

func (TeamActor) isActor()     {}
func (TeamActor) Kind() string { return "team" }

// UserActor grants push access to a single Provider user (typically a merge
// bot's account).
type UserActor struct {
	Login string
}

func (UserActor) isActor()     {}
func (UserActor) Kind() string { return "user" }

// AppActor grants push access to a Provider App installation. The core never
// constructs one; it only ever forwards an observed value (invariant B5).
type AppActor struct {
	// Opaque identifies the app actor as reported by the Provider (e.g. its
	// GraphQL node id or app slug). The core treats it as opaque data.
	Opaque string
}

func (AppActor) isActor()     {}
func (AppActor) Kind() string { return "app" }
