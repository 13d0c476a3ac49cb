package errata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/moznion/go-optional"
)

// Stringable is a string that upstream metadata may also encode as a number,
// for example epochs, module versions or SUSE timestamps.
type Stringable string

var _ json.Unmarshaler = (*Stringable)(nil)

func (s *Stringable) UnmarshalJSON(b []byte) error {
	var value string
	err := json.Unmarshal(b, &value)
	if err == nil {
		*s = Stringable(value)
		return nil
	}

	var valueInt int64
	err = json.Unmarshal(b, &valueInt)
	if err != nil {
		return fmt.Errorf("stringable: cannot interpret value as string or int: %w", err)
	}

	*s = Stringable(strconv.FormatInt(valueInt, 10))
	return nil
}

func (s Stringable) String() string {
	return string(s)
}

// Reference is a bugzilla or CVE reference of an advisory.
type Reference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Href string `json:"href"`
}

const (
	ReferenceTypeBugzilla = "bugzilla"
	ReferenceTypeCve      = "cve"
)

type PackageInfo struct {
	Name     string     `json:"name"`
	Version  Stringable `json:"version"`
	Release  Stringable `json:"release"`
	Epoch    Stringable `json:"epoch"`
	Arch     string     `json:"arch"`
	Filename string     `json:"filename"`
}

type ModuleSpec struct {
	Name    string     `json:"name"`
	Stream  Stringable `json:"stream"`
	Version Stringable `json:"version"`
	Context string     `json:"context"`
	Arch    string     `json:"arch"`
}

func (m ModuleSpec) ModuleStream() ModuleStream {
	return ModuleStream{
		Name:    m.Name,
		Stream:  m.Stream.String(),
		Version: m.Version.String(),
		Context: m.Context,
		Arch:    m.Arch,
	}
}

// PackageList is one package group of an advisory's pkglist. Groups that
// belong to a module stream carry its descriptor.
type PackageList struct {
	Packages []PackageInfo              `json:"packages"`
	Module   optional.Option[ModuleSpec] `json:"module"`
}

// Payload is an advisory document as delivered by the upstream content
// server. Scalar fields keep track of whether they were present, absent keys
// never overwrite stored values.
type Payload struct {
	UUID            string                      `json:"_id"`
	ID              optional.Option[string]     `json:"id"`
	Title           optional.Option[string]     `json:"title"`
	Severity        optional.Option[string]     `json:"severity"`
	Issued          optional.Option[Stringable] `json:"issued"`
	Updated         optional.Option[Stringable] `json:"updated"`
	Type            optional.Option[string]     `json:"type"`
	Description     optional.Option[string]     `json:"description"`
	Solution        optional.Option[string]     `json:"solution"`
	Summary         optional.Option[string]     `json:"summary"`
	RebootSuggested optional.Option[bool]       `json:"reboot_suggested"`
	References      []Reference                 `json:"references"`
	PkgList         []PackageList               `json:"pkglist"`
}

// ReferencesOfType returns the references with the given type in payload
// order.
func (p Payload) ReferencesOfType(typ string) []Reference {
	refs := []Reference{}
	for _, ref := range p.References {
		if ref.Type == typ {
			refs = append(refs, ref)
		}
	}
	return refs
}

// DecodePayloads decodes either a single advisory document or an array of
// them.
func DecodePayloads(data []byte) ([]Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		payloads := []Payload{}
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, fmt.Errorf("could not decode advisory list: %w", err)
		}
		return payloads, nil
	}

	payload := Payload{}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("could not decode advisory: %w", err)
	}
	return []Payload{payload}, nil
}
