package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gitlab.com/katello-tools/errata-tracker/errata"
)

var ErrMissingErrataID = errors.New("advisory has no id")

// ProcessPayload rewrites an advisory, stores it on the erratum with the same
// errata id and records that the repository carries it.
func ProcessPayload(
	ctx context.Context,
	store *errata.Store,
	rewriters []compiledRewriter,
	repo *errata.Repository,
	payload errata.Payload,
) (*errata.Erratum, error) {
	for _, rewriter := range rewriters {
		payload = rewriter.Rewrite(payload)
	}

	errataID := payload.ID.TakeOr("")
	if errataID == "" {
		return nil, ErrMissingErrataID
	}

	erratum, err := store.FindOrCreateErratum(ctx, errataID, payload.UUID)
	if err != nil {
		return nil, err
	}

	err = store.ApplyUpdate(ctx, erratum, payload)
	if err != nil {
		return nil, err
	}

	err = store.AddRepositoryErratum(ctx, repo.ID, erratum.ID)
	if err != nil {
		return nil, err
	}
	return erratum, nil
}

// ImportPayloads processes all payloads for a repository. Failing advisories
// are logged and skipped, their errors are returned together.
func ImportPayloads(
	ctx context.Context,
	store *errata.Store,
	rewriters []compiledRewriter,
	repo *errata.Repository,
	payloads []errata.Payload,
) error {
	errs := []error{}
	for _, payload := range payloads {
		id := payload.ID.TakeOr("")
		slog.Debug("Processing advisory", "id", id, "repository", repo.Label)
		_, err := ProcessPayload(ctx, store, rewriters, repo, payload)
		if err != nil {
			slog.Error("could not process advisory", "id", id, "repository", repo.Label, "err", err)
			errs = append(errs, fmt.Errorf("advisory %q: %w", id, err))
		}
	}
	slog.Info(
		"Finished importing advisories",
		"repository", repo.Label,
		"advisories", len(payloads),
		"failed", len(errs),
	)
	return errors.Join(errs...)
}

// ImportFile imports a JSON file holding one advisory or a list of them into
// the repository with the given label.
func ImportFile(
	ctx context.Context,
	store *errata.Store,
	config errata.Config,
	path string,
	repository string,
) error {
	rewriters, err := CompileRewriters(config)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	payloads, err := errata.DecodePayloads(data)
	if err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}

	repo, err := store.FindOrCreateRepository(ctx, repository)
	if err != nil {
		return err
	}
	slog.Info("Importing advisory file", "path", path, "repository", repository, "advisories", len(payloads))
	return ImportPayloads(ctx, store, rewriters, repo, payloads)
}
