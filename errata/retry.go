package errata

import (
	"errors"
	"log/slog"
)

// runUntil inserts the rows returned by needed until nothing is missing. An
// insert that fails with ErrStaleWrite is followed by recomputing needed from
// storage. The number of attempts is bounded by the number of rows needed
// initially.
func runUntil[T any](kind string, needed func() ([]T, error), action func([]T) error) error {
	pending, err := needed()
	if err != nil {
		return err
	}

	retries := len(pending)
	for len(pending) > 0 && retries > 0 {
		err = action(pending)
		if err != nil {
			if !errors.Is(err, ErrStaleWrite) {
				return err
			}
			slog.Debug("concurrent insert detected, reloading", "kind", kind, "pending", len(pending), "err", err)
		}

		pending, err = needed()
		if err != nil {
			return err
		}
		retries--
	}

	if len(pending) > 0 {
		return &IndexingExhaustedError{Kind: kind, Remaining: len(pending)}
	}
	return nil
}
