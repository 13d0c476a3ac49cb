package errata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

type fixture struct {
	store  *Store
	hosts  map[string]*Host
	facets map[string]*ContentFacet
	repos  map[string]*Repository
	errata map[string]*Erratum
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		store:  newTestStore(t),
		hosts:  map[string]*Host{},
		facets: map[string]*ContentFacet{},
		repos:  map[string]*Repository{},
		errata: map[string]*Erratum{},
	}
}

func (f *fixture) host(t *testing.T, name string, organizationID uint) {
	t.Helper()
	host := &Host{Name: name, OrganizationID: organizationID}
	require.NoError(t, f.store.DB.Create(host).Error)
	facet := &ContentFacet{HostID: host.ID}
	require.NoError(t, f.store.DB.Create(facet).Error)
	f.hosts[name] = host
	f.facets[name] = facet
}

func (f *fixture) repo(t *testing.T, label string) {
	t.Helper()
	repo, err := f.store.FindOrCreateRepository(context.Background(), label)
	require.NoError(t, err)
	f.repos[label] = repo
}

func (f *fixture) erratum(t *testing.T, errataID, typ string, updated time.Time, repos ...string) {
	t.Helper()
	erratum := ingest(t, f.store, Payload{
		ID:      optional.Some(errataID),
		Type:    optional.Some(typ),
		Updated: optional.Some(Stringable(updated.Format(time.RFC3339))),
		PkgList: []PackageList{{Packages: []PackageInfo{
			{Name: "pkg", Version: "1.0", Release: Stringable(errataID), Arch: "noarch", Filename: errataID + ".rpm"},
		}}},
	})
	for _, label := range repos {
		require.NoError(t, f.store.AddRepositoryErratum(context.Background(), f.repos[label].ID, erratum.ID))
	}
	f.errata[errataID] = erratum
}

func (f *fixture) bind(t *testing.T, host string, repos ...string) {
	t.Helper()
	for _, label := range repos {
		require.NoError(t, f.store.DB.Create(&ContentFacetRepository{
			ContentFacetID: f.facets[host].ID,
			RepositoryID:   f.repos[label].ID,
		}).Error)
	}
}

func (f *fixture) applicable(t *testing.T, host string, errata ...string) {
	t.Helper()
	for _, errataID := range errata {
		require.NoError(t, f.store.DB.Create(&ContentFacetErratum{
			ContentFacetID: f.facets[host].ID,
			ErratumID:      f.errata[errataID].ID,
		}).Error)
	}
}

func (f *fixture) hostIDs(names ...string) []uint {
	ids := []uint{}
	for _, name := range names {
		ids = append(ids, f.hosts[name].ID)
	}
	return ids
}

func errataIDs(errata []Erratum) []string {
	ids := []string{}
	for _, e := range errata {
		ids = append(ids, e.ErrataID)
	}
	return ids
}

func hostNames(hosts []Host) []string {
	names := []string{}
	for _, h := range hosts {
		names = append(names, h.Name)
	}
	return names
}

// Hosts web1 and web2 belong to organization 1, db1 to organization 2.
// web1 and db1 are bound to repository A, web2 to repository B.
func newApplicabilityFixture(t *testing.T) *fixture {
	f := newFixture(t)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	f.host(t, "web1", 1)
	f.host(t, "web2", 1)
	f.host(t, "db1", 2)
	f.repo(t, "A")
	f.repo(t, "B")

	f.erratum(t, "RHSA-2024:0001", "security", day, "A")
	f.erratum(t, "RHBA-2024:0002", "bugfix", day.AddDate(0, 0, 1), "B")
	f.erratum(t, "RHEA-2024:0003", "enhancement", day.AddDate(0, 0, 2), "A")

	f.bind(t, "web1", "A")
	f.bind(t, "web2", "B")
	f.bind(t, "db1", "A")

	f.applicable(t, "web1", "RHSA-2024:0001", "RHBA-2024:0002")
	f.applicable(t, "web2", "RHBA-2024:0002", "RHEA-2024:0003")
	f.applicable(t, "db1", "RHSA-2024:0001")
	return f
}

func TestApplicableToHosts(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newApplicabilityFixture(t)
	ctx := context.Background()

	found, err := f.store.ApplicableToHosts(ctx, f.hostIDs("web1"))
	require.NoError(err)
	assert.Equal([]string{"RHBA-2024:0002", "RHSA-2024:0001"}, errataIDs(found))

	found, err = f.store.ApplicableToHosts(ctx, f.hostIDs("web1", "web2"))
	require.NoError(err)
	assert.Equal([]string{"RHBA-2024:0002", "RHEA-2024:0003", "RHSA-2024:0001"}, errataIDs(found))

	found, err = f.store.ApplicableToHosts(ctx, f.hostIDs("web1", "web2"), Bugfix())
	require.NoError(err)
	assert.Equal([]string{"RHBA-2024:0002"}, errataIDs(found))

	found, err = f.store.ApplicableToHosts(ctx, []uint{})
	require.NoError(err)
	assert.Empty(found)
}

func TestInstallableForHosts(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newApplicabilityFixture(t)
	ctx := context.Background()

	// RHBA-2024:0002 applies to web1 but is only carried by repository B
	found, err := f.store.InstallableForHosts(ctx, f.hostIDs("web1"))
	require.NoError(err)
	assert.Equal([]string{"RHSA-2024:0001"}, errataIDs(found))

	found, err = f.store.InstallableForHosts(ctx, f.hostIDs("web2"))
	require.NoError(err)
	assert.Equal([]string{"RHBA-2024:0002"}, errataIDs(found))

	found, err = f.store.InstallableForHosts(ctx, nil)
	require.NoError(err)
	assert.Equal([]string{"RHBA-2024:0002", "RHSA-2024:0001"}, errataIDs(found))

	found, err = f.store.InstallableForHosts(ctx, nil, Security())
	require.NoError(err)
	assert.Equal([]string{"RHSA-2024:0001"}, errataIDs(found))

	found, err = f.store.InstallableForHosts(ctx, nil, Enhancement())
	require.NoError(err)
	assert.Empty(found)

	ids, err := f.store.IDsInstallableForHosts(ctx, f.hostIDs("web1", "web2"))
	require.NoError(err)
	assert.Equal([]uint{f.errata["RHSA-2024:0001"].ID, f.errata["RHBA-2024:0002"].ID}, ids)
}

func TestInstallableRequiresSameHostBinding(t *testing.T) {
	require := require.New(t)

	f := newApplicabilityFixture(t)

	// web2 has RHEA-2024:0003 applicable, which only repository A carries.
	// web1 is bound to A, but nothing applicable to web1 is affected.
	found, err := f.store.InstallableForHosts(context.Background(), f.hostIDs("web1", "web2"))
	require.NoError(err)
	require.NotContains(errataIDs(found), "RHEA-2024:0003")
}

func TestApplicableToHostsDashboard(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newFixture(t)
	f.host(t, "web1", 1)
	f.repo(t, "A")
	f.repo(t, "B")
	f.bind(t, "web1", "A", "B")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		errataID := fmt.Sprintf("RHSA-2024:%04d", i)
		f.erratum(t, errataID, "security", day.AddDate(0, 0, i), "A", "B")
		f.applicable(t, "web1", errataID)
	}

	found, err := f.store.ApplicableToHostsDashboard(context.Background(), f.hostIDs("web1"), 0)
	require.NoError(err)
	assert.Equal([]string{
		"RHSA-2024:0009", "RHSA-2024:0008", "RHSA-2024:0007",
		"RHSA-2024:0006", "RHSA-2024:0005", "RHSA-2024:0004",
	}, errataIDs(found))

	found, err = f.store.ApplicableToHostsDashboard(context.Background(), f.hostIDs("web1"), 2)
	require.NoError(err)
	assert.Len(found, 2)
}

func TestWithIdentifiers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	store := newTestStore(t)
	ctx := context.Background()
	byID, err := store.FindOrCreateErratum(ctx, "RHSA-2020:1", "")
	require.NoError(err)
	byUUID, err := store.FindOrCreateErratum(ctx, "RHBA-2020:2", "abc-123")
	require.NoError(err)
	byNumber := newErratum(t, store, "RHEA-2020:3")
	newErratum(t, store, "RHEA-2020:4")

	found, err := store.WithIdentifiers(ctx, fmt.Sprint(byNumber.ID), "abc-123", "RHSA-2020:1", "nonsense")
	require.NoError(err)
	require.Len(found, 3)
	assert.Equal([]uint{byID.ID, byUUID.ID, byNumber.ID}, []uint{found[0].ID, found[1].ID, found[2].ID})

	found, err = store.WithIdentifiers(ctx)
	require.NoError(err)
	assert.Empty(found)
}

func TestHostsApplicableAndAvailable(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newApplicabilityFixture(t)
	ctx := context.Background()

	hosts, err := f.store.HostsApplicable(ctx, f.errata["RHSA-2024:0001"].ID, optional.None[uint]())
	require.NoError(err)
	assert.Equal([]string{"web1", "db1"}, hostNames(hosts))

	hosts, err = f.store.HostsApplicable(ctx, f.errata["RHSA-2024:0001"].ID, optional.Some[uint](1))
	require.NoError(err)
	assert.Equal([]string{"web1"}, hostNames(hosts))

	hosts, err = f.store.HostsApplicable(ctx, f.errata["RHBA-2024:0002"].ID, optional.None[uint]())
	require.NoError(err)
	assert.Equal([]string{"web1", "web2"}, hostNames(hosts))

	hosts, err = f.store.HostsAvailable(ctx, f.errata["RHBA-2024:0002"].ID, optional.None[uint]())
	require.NoError(err)
	assert.Equal([]string{"web2"}, hostNames(hosts))

	hosts, err = f.store.HostsAvailable(ctx, f.errata["RHSA-2024:0001"].ID, optional.Some[uint](2))
	require.NoError(err)
	assert.Equal([]string{"db1"}, hostNames(hosts))

	ids, err := f.store.HostsInOrganization(ctx, 1)
	require.NoError(err)
	assert.Equal(f.hostIDs("web1", "web2"), ids)
}

func TestListFilenamesByClauses(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := newApplicabilityFixture(t)
	ctx := context.Background()
	repoA := f.repos["A"].ID

	filenames, err := f.store.ListFilenamesByClauses(ctx, repoA)
	require.NoError(err)
	assert.Equal([]string{"RHEA-2024:0003.rpm", "RHSA-2024:0001.rpm"}, filenames)

	filenames, err = f.store.ListFilenamesByClauses(ctx, repoA,
		clause.Eq{Column: clause.Column{Table: "erratum_package", Name: "filename"}, Value: "RHSA-2024:0001.rpm"},
		clause.Eq{Column: clause.Column{Table: "erratum_package", Name: "filename"}, Value: "RHBA-2024:0002.rpm"},
	)
	require.NoError(err)
	assert.Equal([]string{"RHSA-2024:0001.rpm"}, filenames)
}

func TestSortErrata(t *testing.T) {
	require := require.New(t)

	errata := []Erratum{{ErrataID: "RHSA-2024:0002"}, {ErrataID: "RHBA-2024:0009"}, {ErrataID: "RHSA-2024:0001"}}
	SortErrata(errata)
	require.Equal([]string{"RHBA-2024:0009", "RHSA-2024:0001", "RHSA-2024:0002"}, errataIDs(errata))
	require.Negative(Compare(errata[0], errata[1]))
	require.Zero(Compare(errata[1], errata[1]))
}

func TestApplicableToHostsDashboardScopes(t *testing.T) {
	require := require.New(t)

	f := newApplicabilityFixture(t)
	found, err := f.store.ApplicableToHostsDashboard(context.Background(), f.hostIDs("web1", "web2"), 0, Bugfix())
	require.NoError(err)
	require.Equal([]string{"RHBA-2024:0002"}, errataIDs(found))

	found, err = f.store.ApplicableToHostsDashboard(context.Background(), f.hostIDs("web1", "web2"), 0)
	require.NoError(err)
	require.Equal([]string{"RHEA-2024:0003", "RHBA-2024:0002", "RHSA-2024:0001"}, errataIDs(found))
}
