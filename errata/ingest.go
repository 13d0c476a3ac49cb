package errata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTitleLength = 255

// ApplyUpdate stores an upstream advisory document on erratum.
//
// Scalar fields and references are only written when the stored updated
// timestamp is missing or differs from the incoming one. Packages and module
// stream links are reconciled on every call because upstream can add them
// without bumping updated.
func (s *Store) ApplyUpdate(ctx context.Context, erratum *Erratum, payload Payload) error {
	db := s.DB.WithContext(ctx)

	columns, updated, err := payload.columns()
	if err != nil {
		return fmt.Errorf("could not normalize erratum %s: %w", erratum.ErrataID, err)
	}

	if needsUpdate(erratum.Updated, updated) {
		slog.Debug("updating erratum", "errata_id", erratum.ErrataID, "id", erratum.ID)
		if len(columns) > 0 {
			result := db.Model(erratum).Updates(columns)
			if result.Error != nil {
				return fmt.Errorf("could not update erratum %s: %w", erratum.ErrataID, result.Error)
			}
			result = db.First(erratum, erratum.ID)
			if result.Error != nil {
				return fmt.Errorf("could not reload erratum %s: %w", erratum.ErrataID, result.Error)
			}
		}

		if len(payload.References) > 0 {
			err = s.updateBugzillas(db, erratum, payload.ReferencesOfType(ReferenceTypeBugzilla))
			if err != nil {
				return fmt.Errorf("could not index bugzillas of %s: %w", erratum.ErrataID, err)
			}
			err = s.updateCves(db, erratum, payload.ReferencesOfType(ReferenceTypeCve))
			if err != nil {
				return fmt.Errorf("could not index cves of %s: %w", erratum.ErrataID, err)
			}
		}
	}

	if len(payload.PkgList) > 0 {
		err = s.updatePackages(db, erratum, payload.PkgList)
		if err != nil {
			return fmt.Errorf("could not index packages of %s: %w", erratum.ErrataID, err)
		}
		err = s.updateModules(db, erratum, payload.PkgList)
		if err != nil {
			return fmt.Errorf("could not index module streams of %s: %w", erratum.ErrataID, err)
		}
	}

	return nil
}

func needsUpdate(stored *time.Time, incoming optional.Option[time.Time]) bool {
	if stored == nil {
		return true
	}
	return optional.MapOr(incoming, false, func(v time.Time) bool {
		return !v.Equal(*stored)
	})
}

// columns returns the erratum columns present in the payload together with
// the effective updated timestamp.
func (p Payload) columns() (map[string]any, optional.Option[time.Time], error) {
	columns := map[string]any{}
	updated := optional.None[time.Time]()

	p.ID.IfSome(func(v string) { columns["errata_id"] = v })
	p.Severity.IfSome(func(v string) { columns["severity"] = v })
	p.Description.IfSome(func(v string) { columns["description"] = v })
	p.Solution.IfSome(func(v string) { columns["solution"] = v })
	p.Summary.IfSome(func(v string) { columns["summary"] = v })
	p.RebootSuggested.IfSome(func(v bool) { columns["reboot_suggested"] = v })
	p.Title.IfSome(func(v string) { columns["title"] = truncate(v, maxTitleLength) })

	if typ, err := p.Type.Take(); err == nil {
		if !IsKnownType(typ) {
			return nil, updated, fmt.Errorf("%w: %q", ErrUnknownErrataType, typ)
		}
		columns["errata_type"] = typ
	}

	issued, err := normalizeTimestamp(p.Issued)
	if err != nil {
		return nil, updated, fmt.Errorf("invalid issued: %w", err)
	}
	if p.Issued.IsSome() {
		columns["issued"] = issued.UnwrapAsPtr()
	}

	updated, err = normalizeTimestamp(p.Updated)
	if err != nil {
		return nil, updated, fmt.Errorf("invalid updated: %w", err)
	}
	updated = updated.Or(issued)
	updated.IfSome(func(v time.Time) { columns["updated"] = &v })

	return columns, updated, nil
}

func normalizeTimestamp(value optional.Option[Stringable]) (optional.Option[time.Time], error) {
	date := strings.TrimSpace(value.TakeOr("").String())
	if date == "" {
		return optional.None[time.Time](), nil
	}
	t, err := ParseTimestamp(ConvertDateIfEpoch(date))
	if err != nil {
		return optional.None[time.Time](), err
	}
	return optional.Some(t), nil
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length-3]) + "..."
}

func (s *Store) updateBugzillas(db *gorm.DB, erratum *Erratum, refs []Reference) error {
	refs = uniqueBy(refs, func(r Reference) string { return r.ID })
	needed := func() ([]Reference, error) {
		var existing []string
		err := db.Model(&ErratumBugzilla{}).Where("erratum_id = ?", erratum.ID).Pluck("bug_id", &existing).Error
		if err != nil {
			return nil, err
		}
		return missing(refs, existing, func(r Reference) string { return r.ID }), nil
	}
	action := func(needed []Reference) error {
		rows := make([]ErratumBugzilla, 0, len(needed))
		for _, ref := range needed {
			rows = append(rows, ErratumBugzilla{ErratumID: erratum.ID, BugID: ref.ID, Href: ref.Href})
		}
		return s.insert(db, &rows)
	}
	return runUntil("bugzilla", needed, action)
}

func (s *Store) updateCves(db *gorm.DB, erratum *Erratum, refs []Reference) error {
	refs = uniqueBy(refs, func(r Reference) string { return r.ID })
	needed := func() ([]Reference, error) {
		var existing []string
		err := db.Model(&ErratumCve{}).Where("erratum_id = ?", erratum.ID).Pluck("cve_id", &existing).Error
		if err != nil {
			return nil, err
		}
		return missing(refs, existing, func(r Reference) string { return r.ID }), nil
	}
	action := func(needed []Reference) error {
		rows := make([]ErratumCve, 0, len(needed))
		for _, ref := range needed {
			rows = append(rows, ErratumCve{ErratumID: erratum.ID, CveID: ref.ID, Href: ref.Href})
		}
		return s.insert(db, &rows)
	}
	return runUntil("cve", needed, action)
}

func (s *Store) updatePackages(db *gorm.DB, erratum *Erratum, pkglist []PackageList) error {
	candidates := []ErratumPackage{}
	for _, list := range pkglist {
		for _, pkg := range list.Packages {
			candidates = append(candidates, ErratumPackage{
				ErratumID: erratum.ID,
				Name:      pkg.Name,
				Nvrea:     BuildNVREA(pkg),
				Filename:  pkg.Filename,
				Purl:      PackageURL(pkg),
			})
		}
	}
	candidates = uniqueBy(candidates, func(p ErratumPackage) string { return p.Nvrea })

	needed := func() ([]ErratumPackage, error) {
		var existing []string
		err := db.Model(&ErratumPackage{}).Where("erratum_id = ?", erratum.ID).Pluck("nvrea", &existing).Error
		if err != nil {
			return nil, err
		}
		return missing(candidates, existing, func(p ErratumPackage) string { return p.Nvrea }), nil
	}
	action := func(needed []ErratumPackage) error {
		rows := make([]ErratumPackage, len(needed))
		copy(rows, needed)
		return s.insert(db, &rows)
	}
	return runUntil("package", needed, action)
}

type moduleLink struct {
	stream ModuleStream
	nvrea  string
}

func (s *Store) updateModules(db *gorm.DB, erratum *Erratum, pkglist []PackageList) error {
	links := []moduleLink{}
	for _, list := range pkglist {
		spec, err := list.Module.Take()
		if err != nil {
			continue
		}
		stream, err := s.findOrCreateModuleStream(db, spec.ModuleStream())
		if err != nil {
			return err
		}
		for _, pkg := range list.Packages {
			links = append(links, moduleLink{stream: stream, nvrea: BuildNVREA(pkg)})
		}
	}
	if len(links) == 0 {
		return nil
	}

	needed := func() ([]ModuleStreamErratumPackage, error) {
		var packages []ErratumPackage
		err := db.Where("erratum_id = ?", erratum.ID).Find(&packages).Error
		if err != nil {
			return nil, err
		}
		packageIDs := make(map[string]uint, len(packages))
		ids := make([]uint, 0, len(packages))
		for _, pkg := range packages {
			packageIDs[pkg.Nvrea] = pkg.ID
			ids = append(ids, pkg.ID)
		}

		var existing []ModuleStreamErratumPackage
		err = db.Where("erratum_package_id IN ?", ids).Find(&existing).Error
		if err != nil {
			return nil, err
		}
		linked := make(map[[2]uint]bool, len(existing))
		for _, link := range existing {
			linked[[2]uint{link.ModuleStreamID, link.ErratumPackageID}] = true
		}

		rows := []ModuleStreamErratumPackage{}
		for _, link := range links {
			packageID, ok := packageIDs[link.nvrea]
			if !ok {
				return nil, &PreconditionError{NVREA: link.nvrea, ModuleStream: link.stream}
			}
			key := [2]uint{link.stream.ID, packageID}
			if linked[key] {
				continue
			}
			linked[key] = true
			rows = append(rows, ModuleStreamErratumPackage{ModuleStreamID: link.stream.ID, ErratumPackageID: packageID})
		}
		return rows, nil
	}
	action := func(needed []ModuleStreamErratumPackage) error {
		rows := make([]ModuleStreamErratumPackage, len(needed))
		copy(rows, needed)
		return s.insert(db, &rows)
	}
	return runUntil("module_stream_package", needed, action)
}

// FindOrCreateModuleStream returns the module stream with the full
// specification of stream, inserting it if it does not exist yet.
func (s *Store) FindOrCreateModuleStream(ctx context.Context, stream ModuleStream) (ModuleStream, error) {
	return s.findOrCreateModuleStream(s.DB.WithContext(ctx), stream)
}

func (s *Store) findOrCreateModuleStream(db *gorm.DB, stream ModuleStream) (ModuleStream, error) {
	var found ModuleStream
	needed := func() ([]ModuleStream, error) {
		found = ModuleStream{}
		err := db.Where(stream.Spec()).Limit(1).Find(&found).Error
		if err != nil {
			return nil, err
		}
		if found.ID != 0 {
			return nil, nil
		}
		return []ModuleStream{stream}, nil
	}
	action := func(needed []ModuleStream) error {
		row := needed[0]
		row.ID = 0
		return s.insert(db.Clauses(clause.OnConflict{DoNothing: true}), &row)
	}
	err := runUntil("module_stream", needed, action)
	if err != nil {
		return ModuleStream{}, fmt.Errorf("could not find or create module stream %s:%s: %w", stream.Name, stream.Stream, err)
	}
	return found, nil
}

// FindOrCreateErratum returns the erratum with the external identifier
// errataID, inserting an empty one if it does not exist yet. A blank uuid
// gets a random one assigned.
func (s *Store) FindOrCreateErratum(ctx context.Context, errataID, erratumUUID string) (*Erratum, error) {
	db := s.DB.WithContext(ctx)
	if erratumUUID == "" {
		erratumUUID = uuid.NewString()
	}

	var found Erratum
	needed := func() ([]Erratum, error) {
		found = Erratum{}
		err := db.Where("errata_id = ?", errataID).Limit(1).Find(&found).Error
		if err != nil {
			return nil, err
		}
		if found.ID != 0 {
			return nil, nil
		}
		return []Erratum{{ErrataID: errataID, UUID: erratumUUID}}, nil
	}
	action := func(needed []Erratum) error {
		row := needed[0]
		return s.insert(db.Clauses(clause.OnConflict{DoNothing: true}), &row)
	}
	err := runUntil("erratum", needed, action)
	if err != nil {
		return nil, fmt.Errorf("could not find or create erratum %s: %w", errataID, err)
	}
	return &found, nil
}

// FindOrCreateRepository returns the repository with the given label.
func (s *Store) FindOrCreateRepository(ctx context.Context, label string) (*Repository, error) {
	db := s.DB.WithContext(ctx)
	repo := Repository{Label: label, Name: label}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&repo)
	if result.Error != nil {
		return nil, fmt.Errorf("could not create repository %s: %w", label, result.Error)
	}
	repo = Repository{}
	result = db.Where("label = ?", label).First(&repo)
	if result.Error != nil {
		return nil, fmt.Errorf("could not find repository %s: %w", label, result.Error)
	}
	return &repo, nil
}

// AddRepositoryErratum records that the repository carries the erratum.
func (s *Store) AddRepositoryErratum(ctx context.Context, repositoryID, erratumID uint) error {
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&RepositoryErratum{RepositoryID: repositoryID, ErratumID: erratumID})
	if result.Error != nil {
		return fmt.Errorf("could not add erratum %d to repository %d: %w", erratumID, repositoryID, result.Error)
	}
	return nil
}

func uniqueBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]bool, len(items))
	unique := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, item)
	}
	return unique
}

func missing[T any](candidates []T, existing []string, key func(T) string) []T {
	present := make(map[string]bool, len(existing))
	for _, e := range existing {
		present[e] = true
	}
	needed := []T{}
	for _, candidate := range candidates {
		if !present[key(candidate)] {
			needed = append(needed, candidate)
		}
	}
	return needed
}
