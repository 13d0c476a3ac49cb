package errata

import "time"

type Erratum struct {
	Bugzillas        []ErratumBugzilla   `gorm:"foreignKey:ErratumID;constraint:OnDelete:CASCADE"`
	Cves             []ErratumCve        `gorm:"foreignKey:ErratumID;constraint:OnDelete:CASCADE"`
	Packages         []ErratumPackage    `gorm:"foreignKey:ErratumID;constraint:OnDelete:CASCADE"`
	RepositoryErrata []RepositoryErratum `gorm:"foreignKey:ErratumID;constraint:OnDelete:CASCADE"`
	Issued           *time.Time
	Updated          *time.Time `gorm:"index:ix_erratum_updated"`
	UUID             string     `gorm:"type:varchar(80);not null;uniqueIndex:ix_erratum_uuid"`
	ErrataID         string     `gorm:"type:varchar(255);not null;uniqueIndex:ix_erratum_errata_id"`
	ErrataType       string     `gorm:"type:varchar(80);index:ix_erratum_errata_type"`
	Severity         string     `gorm:"type:varchar(80)"`
	Title            string     `gorm:"type:varchar(255)"`
	Description      string
	Solution         string
	Summary          string
	ID               uint `gorm:"primaryKey;not null"`
	RebootSuggested  bool `gorm:"type:boolean"`
}

type ErratumBugzilla struct {
	BugID     string `gorm:"type:varchar(80);not null;uniqueIndex:ix_erratum_bugzilla_erratum_bug,priority:2"`
	Href      string
	ID        uint `gorm:"primaryKey;not null"`
	ErratumID uint `gorm:"not null;uniqueIndex:ix_erratum_bugzilla_erratum_bug,priority:1"`
}

type ErratumCve struct {
	CveID     string `gorm:"type:varchar(80);not null;uniqueIndex:ix_erratum_cve_erratum_cve,priority:2"`
	Href      string
	ID        uint `gorm:"primaryKey;not null"`
	ErratumID uint `gorm:"not null;uniqueIndex:ix_erratum_cve_erratum_cve,priority:1"`
}

type ErratumPackage struct {
	Name      string `gorm:"index:ix_erratum_package_name"`
	Nvrea     string `gorm:"not null;uniqueIndex:ix_erratum_package_erratum_nvrea,priority:2"`
	Filename  string
	Purl      string
	ID        uint `gorm:"primaryKey;not null"`
	ErratumID uint `gorm:"not null;uniqueIndex:ix_erratum_package_erratum_nvrea,priority:1"`
}

type ModuleStream struct {
	Name    string `gorm:"not null;uniqueIndex:ix_module_stream_spec,priority:1"`
	Stream  string `gorm:"not null;uniqueIndex:ix_module_stream_spec,priority:2"`
	Version string `gorm:"not null;uniqueIndex:ix_module_stream_spec,priority:3"`
	Context string `gorm:"not null;uniqueIndex:ix_module_stream_spec,priority:4"`
	Arch    string `gorm:"not null;uniqueIndex:ix_module_stream_spec,priority:5"`
	ID      uint   `gorm:"primaryKey;not null"`
}

// Spec returns the full module specification used to deduplicate streams.
func (m ModuleStream) Spec() map[string]any {
	return map[string]any{
		"name":    m.Name,
		"stream":  m.Stream,
		"version": m.Version,
		"context": m.Context,
		"arch":    m.Arch,
	}
}

type ModuleStreamErratumPackage struct {
	ID               uint `gorm:"primaryKey;not null"`
	ModuleStreamID   uint `gorm:"not null;uniqueIndex:ix_module_stream_erratum_package_link,priority:1"`
	ErratumPackageID uint `gorm:"not null;uniqueIndex:ix_module_stream_erratum_package_link,priority:2;index:ix_module_stream_erratum_package_package"`
}

type Repository struct {
	Label          string `gorm:"type:varchar(255);not null;uniqueIndex:ix_repository_label"`
	Name           string
	ID             uint `gorm:"primaryKey;not null"`
	OrganizationID uint `gorm:"index:ix_repository_organization_id"`
}

type Host struct {
	Name           string `gorm:"type:varchar(255);not null"`
	ID             uint   `gorm:"primaryKey;not null"`
	OrganizationID uint   `gorm:"index:ix_host_organization_id"`
}

// ContentFacet holds the content subscription state of a single host.
type ContentFacet struct {
	ID     uint `gorm:"primaryKey;not null"`
	HostID uint `gorm:"not null;uniqueIndex:ix_content_facet_host_id"`
}

// ContentFacetRepository binds a repository to a content facet.
type ContentFacetRepository struct {
	ID             uint `gorm:"primaryKey;not null"`
	ContentFacetID uint `gorm:"not null;uniqueIndex:ix_content_facet_repository_pair,priority:1"`
	RepositoryID   uint `gorm:"not null;uniqueIndex:ix_content_facet_repository_pair,priority:2;index:ix_content_facet_repository_repository_id"`
}

// ContentFacetErratum marks an erratum as applicable to a content facet. The
// rows are maintained by the applicability calculation and only read here.
type ContentFacetErratum struct {
	ID             uint `gorm:"primaryKey;not null"`
	ContentFacetID uint `gorm:"not null;uniqueIndex:ix_content_facet_erratum_pair,priority:1"`
	ErratumID      uint `gorm:"not null;uniqueIndex:ix_content_facet_erratum_pair,priority:2;index:ix_content_facet_erratum_erratum_id"`
}

type RepositoryErratum struct {
	ID           uint `gorm:"primaryKey;not null"`
	RepositoryID uint `gorm:"not null;uniqueIndex:ix_repository_erratum_pair,priority:1"`
	ErratumID    uint `gorm:"not null;uniqueIndex:ix_repository_erratum_pair,priority:2;index:ix_repository_erratum_erratum_id"`
}

// Models lists every table owned by this package in migration order.
func Models() []any {
	return []any{
		&Erratum{},
		&ErratumBugzilla{},
		&ErratumCve{},
		&ErratumPackage{},
		&ModuleStream{},
		&ModuleStreamErratumPackage{},
		&Repository{},
		&Host{},
		&ContentFacet{},
		&ContentFacetRepository{},
		&ContentFacetErratum{},
		&RepositoryErratum{},
	}
}
