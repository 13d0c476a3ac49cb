package errata

import (
	"strings"

	"github.com/package-url/packageurl-go"
)

// BuildNVREA returns the canonical identity of a package:
// name-[epoch:]version-release[.arch]. A blank or zero epoch is omitted.
func BuildNVREA(p PackageInfo) string {
	var nvrea strings.Builder
	nvrea.WriteString(p.Name)
	nvrea.WriteByte('-')
	if hasEpoch(p.Epoch) {
		nvrea.WriteString(strings.TrimSpace(p.Epoch.String()))
		nvrea.WriteByte(':')
	}
	nvrea.WriteString(p.Version.String())
	nvrea.WriteByte('-')
	nvrea.WriteString(p.Release.String())
	if p.Arch != "" {
		nvrea.WriteByte('.')
		nvrea.WriteString(p.Arch)
	}
	return nvrea.String()
}

func hasEpoch(epoch Stringable) bool {
	e := strings.TrimLeft(strings.TrimSpace(epoch.String()), "0")
	return e != ""
}

// PackageURL returns the rpm package URL of an advisory package.
func PackageURL(p PackageInfo) string {
	qualifiers := packageurl.Qualifiers{}
	if p.Arch != "" {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "arch", Value: p.Arch})
	}
	if hasEpoch(p.Epoch) {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "epoch", Value: strings.TrimSpace(p.Epoch.String())})
	}
	purl := packageurl.NewPackageURL(
		packageurl.TypeRPM,
		"",
		p.Name,
		p.Version.String()+"-"+p.Release.String(),
		qualifiers,
		"",
	)
	return purl.ToString()
}
