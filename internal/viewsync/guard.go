package viewsync

// Guard is the re-entrancy flag for mirrored updates. It is not safe for
// concurrent use; every caller runs on the presentation goroutine.
type Guard struct {
	held bool
}

// Held reports whether a mirrored update is in flight.
func (g *Guard) Held() bool { return g.held }

// Acquire sets the flag and returns the function that clears it. It returns
// ok=false, and a no-op release, when the flag is already set.
func (g *Guard) Acquire() (release func(), ok bool) {
	if g.held {
		return func() {}, false
	}
	g.held = true
	return func() { g.held = false }, true
}
