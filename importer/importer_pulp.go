package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.com/katello-tools/errata-tracker/errata"
)

// PulpFeed imports the errata of the given pulp repositories.
func PulpFeed(
	ctx context.Context,
	store *errata.Store,
	client *PulpClient,
	config errata.Config,
	repositories []string,
) error {
	rewriters, err := CompileRewriters(config)
	if err != nil {
		return err
	}

	errs := []error{}
	for _, repository := range repositories {
		err := importPulpRepository(ctx, store, client, rewriters, repository)
		if err != nil {
			slog.Error("could not import repository", "repository", repository, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func importPulpRepository(
	ctx context.Context,
	store *errata.Store,
	client *PulpClient,
	rewriters []compiledRewriter,
	repository string,
) error {
	slog.Info("Requesting errata", "repository", repository)
	payloads, err := client.GetErrata(ctx, repository)
	if err != nil {
		return fmt.Errorf("could not get errata of %s: %w", repository, err)
	}
	slog.Info("Finished requesting errata", "repository", repository, "results", len(payloads))

	repo, err := store.FindOrCreateRepository(ctx, repository)
	if err != nil {
		return err
	}
	return ImportPayloads(ctx, store, rewriters, repo, payloads)
}
