package errata

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type CleanupResult struct {
	Memberships int
	Bindings    int
	Errata      []uint
}

// CleanupRepository removes a repository together with its erratum
// memberships and host bindings. Errata that are no longer carried by any
// repository are deleted with all rows they own.
func CleanupRepository(
	db *gorm.DB,
	repositoryID uint,
	dryRun bool,
) (res CleanupResult, err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return res, fmt.Errorf("could not start transaction: %w", tx.Error)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var memberships []RepositoryErratum
	err = tx.Where("repository_id = ?", repositoryID).Find(&memberships).Error
	if err != nil {
		return res, fmt.Errorf("could not find repository errata: %w", err)
	}
	res.Memberships = len(memberships)

	var bindings int64
	err = tx.Model(&ContentFacetRepository{}).Where("repository_id = ?", repositoryID).Count(&bindings).Error
	if err != nil {
		return res, fmt.Errorf("could not count bound content facets: %w", err)
	}
	res.Bindings = int(bindings)

	err = tx.Model(&RepositoryErratum{}).
		Where("repository_id = ?", repositoryID).
		Where("erratum_id NOT IN (?)", tx.Model(&RepositoryErratum{}).Select("erratum_id").Where("repository_id <> ?", repositoryID)).
		Order("erratum_id").
		Pluck("erratum_id", &res.Errata).Error
	if err != nil {
		return res, fmt.Errorf("could not find orphaned errata: %w", err)
	}

	slog.Info(
		"cleaning up repository",
		"repository_id", repositoryID,
		"memberships", res.Memberships,
		"bindings", res.Bindings,
		"orphaned_errata", len(res.Errata),
		"dry_run", dryRun,
	)

	if dryRun {
		return res, tx.Rollback().Error
	}

	err = deleteSteps(
		deleteStep{"repository errata", func() *gorm.DB {
			return tx.Where("repository_id = ?", repositoryID).Delete(&RepositoryErratum{})
		}},
		deleteStep{"content facet repositories", func() *gorm.DB {
			return tx.Where("repository_id = ?", repositoryID).Delete(&ContentFacetRepository{})
		}},
		deleteStep{"repository", func() *gorm.DB {
			return tx.Where("id = ?", repositoryID).Delete(&Repository{})
		}},
	)
	if err != nil {
		return res, err
	}

	err = deleteErrata(tx, res.Errata)
	if err != nil {
		return res, err
	}

	err = tx.Commit().Error
	if err != nil {
		return res, fmt.Errorf("could not delete records: %w", err)
	}
	return res, nil
}

// deleteErrata deletes errata and the rows they own.
func deleteErrata(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	packageIDs := tx.Model(&ErratumPackage{}).Select("id").Where("erratum_id IN ?", ids)

	byErratum := func(model any) func() *gorm.DB {
		return func() *gorm.DB { return tx.Where("erratum_id IN ?", ids).Delete(model) }
	}

	return deleteSteps(
		deleteStep{"module stream links", func() *gorm.DB {
			return tx.Where("erratum_package_id IN (?)", packageIDs).Delete(&ModuleStreamErratumPackage{})
		}},
		deleteStep{"packages", byErratum(&ErratumPackage{})},
		deleteStep{"bugzillas", byErratum(&ErratumBugzilla{})},
		deleteStep{"cves", byErratum(&ErratumCve{})},
		deleteStep{"applicability", byErratum(&ContentFacetErratum{})},
		deleteStep{"repository errata", byErratum(&RepositoryErratum{})},
		deleteStep{"errata", func() *gorm.DB {
			return tx.Where("id IN ?", ids).Delete(&Erratum{})
		}},
	)
}

type deleteStep struct {
	name string
	run  func() *gorm.DB
}

func deleteSteps(steps ...deleteStep) error {
	for _, step := range steps {
		result := step.run()
		if result.Error != nil {
			return fmt.Errorf("could not delete %s: %w", step.name, result.Error)
		}
		slog.Debug("deleted", "rows", step.name, "count", result.RowsAffected)
	}
	return nil
}
