package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/moznion/go-optional"
	"gitlab.com/katello-tools/errata-tracker/errata"
	"gitlab.com/katello-tools/errata-tracker/importer/gitfeed"
)

// GitFeed imports the advisories published in the configured git repository.
func GitFeed(
	ctx context.Context,
	store *errata.Store,
	config errata.Config,
	repository string,
) error {
	gitConfig := config.Importers.Git
	slog.Info("Fetching advisory repository", "remote", gitConfig.Remote, "path", gitConfig.Path)
	repo, err := gitfeed.GetRepo(gitConfig.Remote, gitConfig.Path)
	if err != nil {
		return fmt.Errorf("could not open advisory repo: %w", err)
	}

	err = gitfeed.UpdateRepo(repo)
	if err != nil {
		return fmt.Errorf("could not update advisory repo: %w", err)
	}

	entries, err := gitfeed.GetAdvisoryFiles(repo)
	if err != nil {
		return fmt.Errorf("could not get files from repo: %w", err)
	}

	payloads, err := ReadAdvisoryEntries(entries)
	if err != nil {
		return err
	}
	payloads = FilterUpdatedSince(payloads, gitConfig.LookupPeriod, time.Now())

	rewriters, err := CompileRewriters(config)
	if err != nil {
		return err
	}
	target, err := store.FindOrCreateRepository(ctx, repository)
	if err != nil {
		return err
	}
	return ImportPayloads(ctx, store, rewriters, target, payloads)
}

// ReadAdvisoryEntries decodes and closes the entries. Entries that are not
// valid advisory documents are logged and skipped.
func ReadAdvisoryEntries(entries []gitfeed.AdvisoryEntry) ([]errata.Payload, error) {
	payloads := []errata.Payload{}
	for _, entry := range entries {
		data, err := io.ReadAll(entry.Content)
		entry.Content.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", entry.Name, err)
		}

		decoded, err := errata.DecodePayloads(data)
		if err != nil {
			slog.Error("could not unmarshal advisory", "filename", entry.Name, "err", err)
			continue
		}
		payloads = append(payloads, decoded...)
	}
	return payloads, nil
}

// FilterUpdatedSince keeps the payloads updated (or issued) within period
// before now. A period of zero keeps everything, as do payloads without a
// parseable timestamp.
func FilterUpdatedSince(payloads []errata.Payload, period time.Duration, now time.Time) []errata.Payload {
	if period <= 0 {
		return payloads
	}
	cutoff := now.Add(-period)
	kept := []errata.Payload{}
	for _, payload := range payloads {
		date := optional.FlatMap(payload.Updated.Or(payload.Issued), func(v errata.Stringable) optional.Option[time.Time] {
			t, err := errata.ParseTimestamp(errata.ConvertDateIfEpoch(v.String()))
			if err != nil {
				return optional.None[time.Time]()
			}
			return optional.Some(t)
		})
		if optional.MapOr(date, true, func(t time.Time) bool { return t.After(cutoff) }) {
			kept = append(kept, payload)
		}
	}
	return kept
}
