package errata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringableUnmarshalJSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	values := []Stringable{}
	require.NoError(json.Unmarshal([]byte(`["1", 20240101000000, ""]`), &values))
	assert.Equal([]Stringable{"1", "20240101000000", ""}, values)

	var s Stringable
	assert.Error(json.Unmarshal([]byte(`1.5`), &s))
	assert.Error(json.Unmarshal([]byte(`{}`), &s))
}

func TestDecodePayloadTracksPresence(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	payloads, err := DecodePayloads([]byte(`{
		"_id": "uuid-1",
		"id": "RHSA-2024:0001",
		"title": "",
		"updated": 1704067200,
		"reboot_suggested": false,
		"references": [
			{"type": "bugzilla", "id": "1", "href": "https://bugzilla.example.com/1"},
			{"type": "cve", "id": "CVE-2024-1", "href": "https://cve.example.com/1"},
			{"type": "other", "id": "x", "href": ""}
		],
		"pkglist": [
			{
				"module": {"name": "nodejs", "stream": 18, "version": 8090020240101, "context": "rhel9", "arch": "x86_64"},
				"packages": [{"name": "nodejs", "version": "18.19.0", "release": "1", "epoch": 1, "arch": "x86_64"}]
			}
		]
	}`))
	require.NoError(err)
	require.Len(payloads, 1)
	payload := payloads[0]

	assert.Equal("uuid-1", payload.UUID)
	assert.Equal("RHSA-2024:0001", payload.ID.TakeOr(""))
	assert.True(payload.Title.IsSome())
	assert.True(payload.Severity.IsNone())
	assert.True(payload.Description.IsNone())
	assert.Equal(Stringable("1704067200"), payload.Updated.TakeOr(""))
	assert.False(payload.RebootSuggested.TakeOr(true))

	assert.Len(payload.ReferencesOfType(ReferenceTypeBugzilla), 1)
	assert.Equal("CVE-2024-1", payload.ReferencesOfType(ReferenceTypeCve)[0].ID)

	require.Len(payload.PkgList, 1)
	module, err := payload.PkgList[0].Module.Take()
	require.NoError(err)
	assert.Equal(ModuleStream{
		Name:    "nodejs",
		Stream:  "18",
		Version: "8090020240101",
		Context: "rhel9",
		Arch:    "x86_64",
	}, module.ModuleStream())
	assert.Equal(Stringable("1"), payload.PkgList[0].Packages[0].Epoch)
}

func TestDecodePayloadsList(t *testing.T) {
	require := require.New(t)

	payloads, err := DecodePayloads([]byte(` [{"id": "a"}, {"id": "b", "pkglist": [{"packages": []}]}]`))
	require.NoError(err)
	require.Len(payloads, 2)
	require.True(payloads[1].PkgList[0].Module.IsNone())

	_, err = DecodePayloads([]byte(`{"id": 5}`))
	require.Error(err)
}
