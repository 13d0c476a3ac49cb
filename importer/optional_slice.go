package importer

import "github.com/moznion/go-optional"

// OptionalFirst returns the first element of s, for example the first
// positional argument of a command.
func OptionalFirst[S ~[]E, E any](s S) optional.Option[E] {
	if len(s) == 0 {
		return optional.None[E]()
	}
	return optional.Some(s[0])
}

// OptionalNonEmpty returns s unless it is empty, so that a flag value can
// fall back to a configured list with TakeOr.
func OptionalNonEmpty[S ~[]E, E any](s S) optional.Option[S] {
	if len(s) == 0 {
		return optional.None[S]()
	}
	return optional.Some(s)
}
