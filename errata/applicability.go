package errata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/moznion/go-optional"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultDashboardLimit is the number of errata shown by ApplicableToHostsDashboard.
const DefaultDashboardLimit = 6

// Scope narrows an erratum query, see OfType.
type Scope func(*gorm.DB) *gorm.DB

// OfType restricts a query to errata with one of the given type labels.
func OfType(types []string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("erratum.errata_type IN ?", types)
	}
}

func Security() Scope    { return OfType(SecurityTypes) }
func Bugfix() Scope      { return OfType(BugfixTypes) }
func Enhancement() Scope { return OfType(EnhancementTypes) }

// applicableIDs selects the ids of errata applicable to any of the hosts.
// The applicability rows are computed elsewhere and read as they are.
func applicableIDs(db *gorm.DB, hostIDs []uint) *gorm.DB {
	return db.Table("content_facet_erratum").
		Select("content_facet_erratum.erratum_id").
		Joins("JOIN content_facet ON content_facet.id = content_facet_erratum.content_facet_id").
		Where("content_facet.host_id IN ?", hostIDs)
}

// installableIDs selects the ids of errata applicable to a host and carried
// by a repository bound to that same host. A nil hostIDs selects for all
// hosts.
func installableIDs(db *gorm.DB, hostIDs []uint) *gorm.DB {
	query := db.Table("content_facet_erratum").
		Select("content_facet_erratum.erratum_id").
		Joins("JOIN content_facet_repository ON content_facet_repository.content_facet_id = content_facet_erratum.content_facet_id").
		Joins("JOIN repository_erratum AS host_repo_errata ON host_repo_errata.erratum_id = content_facet_erratum.erratum_id" +
			" AND host_repo_errata.repository_id = content_facet_repository.repository_id")
	if hostIDs != nil {
		query = query.
			Joins("JOIN content_facet ON content_facet.id = content_facet_erratum.content_facet_id").
			Where("content_facet.host_id IN ?", hostIDs)
	}
	return query
}

// ApplicableToHosts returns the errata applicable to any of the hosts,
// ordered by errata id.
func (s *Store) ApplicableToHosts(ctx context.Context, hostIDs []uint, scopes ...Scope) ([]Erratum, error) {
	db := s.DB.WithContext(ctx)
	var errata []Erratum
	result := db.
		Scopes(toGormScopes(scopes)...).
		Where("erratum.id IN (?)", applicableIDs(db, hostIDs)).
		Order("erratum.errata_id").
		Find(&errata)
	if result.Error != nil {
		return nil, fmt.Errorf("could not query applicable errata: %w", result.Error)
	}
	return errata, nil
}

// ApplicableToHostsDashboard returns the most recently updated applicable
// errata. A limit below one uses DefaultDashboardLimit.
func (s *Store) ApplicableToHostsDashboard(ctx context.Context, hostIDs []uint, limit int, scopes ...Scope) ([]Erratum, error) {
	if limit < 1 {
		limit = DefaultDashboardLimit
	}
	db := s.DB.WithContext(ctx)
	var errata []Erratum
	result := db.
		Scopes(toGormScopes(scopes)...).
		Where("erratum.id IN (?)", applicableIDs(db, hostIDs)).
		Order("erratum.updated DESC").
		Order("erratum.id").
		Limit(limit).
		Find(&errata)
	if result.Error != nil {
		return nil, fmt.Errorf("could not query dashboard errata: %w", result.Error)
	}
	return errata, nil
}

// InstallableForHosts returns the applicable errata of the hosts that can be
// installed from one of their bound repositories. A nil hostIDs considers
// all hosts.
func (s *Store) InstallableForHosts(ctx context.Context, hostIDs []uint, scopes ...Scope) ([]Erratum, error) {
	db := s.DB.WithContext(ctx)
	var errata []Erratum
	result := db.
		Scopes(toGormScopes(scopes)...).
		Where("erratum.id IN (?)", installableIDs(db, hostIDs)).
		Order("erratum.errata_id").
		Find(&errata)
	if result.Error != nil {
		return nil, fmt.Errorf("could not query installable errata: %w", result.Error)
	}
	return errata, nil
}

// IDsInstallableForHosts is InstallableForHosts returning only erratum ids.
func (s *Store) IDsInstallableForHosts(ctx context.Context, hostIDs []uint) ([]uint, error) {
	db := s.DB.WithContext(ctx)
	var ids []uint
	result := db.Model(&Erratum{}).
		Where("erratum.id IN (?)", installableIDs(db, hostIDs)).
		Order("erratum.id").
		Pluck("erratum.id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("could not query installable errata ids: %w", result.Error)
	}
	return ids, nil
}

// WithIdentifiers looks errata up by a mix of internal ids, uuids and
// external errata ids. Tokens that are not integers never match internal ids.
func (s *Store) WithIdentifiers(ctx context.Context, ids ...string) ([]Erratum, error) {
	if len(ids) == 0 {
		return []Erratum{}, nil
	}
	idIntegers := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			n = -1
		}
		idIntegers = append(idIntegers, n)
	}

	var errata []Erratum
	result := s.DB.WithContext(ctx).
		Where("erratum.id IN ? OR erratum.uuid IN ? OR erratum.errata_id IN ?", idIntegers, ids, ids).
		Order("erratum.id").
		Find(&errata)
	if result.Error != nil {
		return nil, fmt.Errorf("could not look up errata: %w", result.Error)
	}
	return errata, nil
}

// HostsInOrganization returns the ids of all hosts of an organization.
func (s *Store) HostsInOrganization(ctx context.Context, organizationID uint) ([]uint, error) {
	var ids []uint
	result := s.DB.WithContext(ctx).Model(&Host{}).
		Where("organization_id = ?", organizationID).
		Order("id").
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("could not list hosts of organization %d: %w", organizationID, result.Error)
	}
	return ids, nil
}

func applicableHostIDs(db *gorm.DB, erratumID uint) *gorm.DB {
	return db.Table("content_facet").
		Select("content_facet.host_id").
		Joins("JOIN content_facet_erratum ON content_facet_erratum.content_facet_id = content_facet.id").
		Where("content_facet_erratum.erratum_id = ?", erratumID)
}

// HostsApplicable returns the hosts the erratum is applicable to, optionally
// limited to one organization.
func (s *Store) HostsApplicable(ctx context.Context, erratumID uint, organizationID optional.Option[uint]) ([]Host, error) {
	db := s.DB.WithContext(ctx)
	return s.findHosts(db, applicableHostIDs(db, erratumID), organizationID)
}

// HostsAvailable returns the hosts the erratum is applicable to and that have
// a repository bound which carries it.
func (s *Store) HostsAvailable(ctx context.Context, erratumID uint, organizationID optional.Option[uint]) ([]Host, error) {
	db := s.DB.WithContext(ctx)
	hostIDs := applicableHostIDs(db, erratumID).
		Joins("JOIN content_facet_repository ON content_facet_repository.content_facet_id = content_facet.id").
		Joins("JOIN repository_erratum ON repository_erratum.repository_id = content_facet_repository.repository_id" +
			" AND repository_erratum.erratum_id = content_facet_erratum.erratum_id")
	return s.findHosts(db, hostIDs, organizationID)
}

func (s *Store) findHosts(db *gorm.DB, hostIDs *gorm.DB, organizationID optional.Option[uint]) ([]Host, error) {
	query := db.Where("host.id IN (?)", hostIDs)
	organizationID.IfSome(func(v uint) {
		query = query.Where("host.organization_id = ?", v)
	})
	var hosts []Host
	result := query.Order("host.id").Find(&hosts)
	if result.Error != nil {
		return nil, fmt.Errorf("could not query hosts: %w", result.Error)
	}
	return hosts, nil
}

// ListFilenamesByClauses returns the filenames of erratum packages carried by
// the repository which match any of the clauses. No clauses match all
// packages.
func (s *Store) ListFilenamesByClauses(ctx context.Context, repositoryID uint, clauses ...clause.Expression) ([]string, error) {
	query := s.DB.WithContext(ctx).Model(&ErratumPackage{}).
		Joins("JOIN repository_erratum ON repository_erratum.erratum_id = erratum_package.erratum_id").
		Where("repository_erratum.repository_id = ?", repositoryID)
	if len(clauses) > 0 {
		query = query.Where(clause.Or(clauses...))
	}

	var filenames []string
	result := query.Order("erratum_package.filename").Pluck("erratum_package.filename", &filenames)
	if result.Error != nil {
		return nil, fmt.Errorf("could not list filenames of repository %d: %w", repositoryID, result.Error)
	}
	return filenames, nil
}

func toGormScopes(scopes []Scope) []func(*gorm.DB) *gorm.DB {
	funcs := make([]func(*gorm.DB) *gorm.DB, 0, len(scopes))
	for _, scope := range scopes {
		funcs = append(funcs, scope)
	}
	return funcs
}
