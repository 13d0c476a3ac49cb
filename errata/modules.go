package errata

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ModuleStreamPackages is a module stream of an erratum together with the
// NVREAs of the erratum packages that belong to it.
type ModuleStreamPackages struct {
	Name     string   `json:"name"`
	Stream   string   `json:"stream"`
	Version  string   `json:"version"`
	Context  string   `json:"context"`
	Arch     string   `json:"arch"`
	Packages []string `json:"packages"`
}

type moduleStreamPackageRow struct {
	ModuleStreamID uint
	Name           string
	Stream         string
	Version        string
	Context        string
	Arch           string
	Nvrea          string
}

// ModuleStreams groups the packages of an erratum by module stream, in the
// order the packages were indexed.
func (s *Store) ModuleStreams(ctx context.Context, erratumID uint) ([]ModuleStreamPackages, error) {
	var rows []moduleStreamPackageRow
	result := s.DB.WithContext(ctx).
		Table("module_stream_erratum_package").
		Select("module_stream.id AS module_stream_id, module_stream.name, module_stream.stream, " +
			"module_stream.version, module_stream.context, module_stream.arch, erratum_package.nvrea").
		Joins("JOIN module_stream ON module_stream.id = module_stream_erratum_package.module_stream_id").
		Joins("JOIN erratum_package ON erratum_package.id = module_stream_erratum_package.erratum_package_id").
		Where("erratum_package.erratum_id = ?", erratumID).
		Order("erratum_package.id").
		Order("module_stream.id").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("could not query module streams of erratum %d: %w", erratumID, result.Error)
	}

	streams := []ModuleStreamPackages{}
	index := map[uint]int{}
	for _, row := range rows {
		i, ok := index[row.ModuleStreamID]
		if !ok {
			i = len(streams)
			index[row.ModuleStreamID] = i
			streams = append(streams, ModuleStreamPackages{
				Name:     row.Name,
				Stream:   row.Stream,
				Version:  row.Version,
				Context:  row.Context,
				Arch:     row.Arch,
				Packages: []string{},
			})
		}
		if !slices.Contains(streams[i].Packages, row.Nvrea) {
			streams[i].Packages = append(streams[i].Packages, row.Nvrea)
		}
	}
	return streams, nil
}

// Compare orders errata by their external errata id.
func Compare(a, b Erratum) int {
	return strings.Compare(a.ErrataID, b.ErrataID)
}

func SortErrata(errata []Erratum) {
	slices.SortStableFunc(errata, Compare)
}
