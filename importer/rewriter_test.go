package importer

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/katello-tools/errata-tracker/errata"
)

func TestRewriterRewritesTypeByDefault(t *testing.T) {
	require := require.New(t)

	rewriter, err := NewCompiledRewriter(errata.Rewriter{
		Predicate:   `id startsWith "openSUSE-SU"`,
		RewriteRule: `"security"`,
	})
	require.NoError(err)
	require.Equal("type", rewriter.Field)

	payload := errata.Payload{
		ID:   optional.Some("openSUSE-SU-2024:0001-1"),
		Type: optional.Some("recommended"),
	}
	payload = rewriter.Rewrite(payload)
	require.Equal("security", payload.Type.TakeOr(""))
}

func TestRewriterSkipsWhenPredicateIsFalse(t *testing.T) {
	require := require.New(t)

	rewriter, err := NewCompiledRewriter(errata.Rewriter{
		Predicate:   `id startsWith "openSUSE-SU"`,
		RewriteRule: `"security"`,
	})
	require.NoError(err)

	payload := errata.Payload{
		ID:   optional.Some("RHBA-2024:0001"),
		Type: optional.Some("bugfix"),
	}
	payload = rewriter.Rewrite(payload)
	require.Equal("bugfix", payload.Type.TakeOr(""))
}

func TestRewriterUsesFmt(t *testing.T) {
	require := require.New(t)

	rewriter, err := NewCompiledRewriter(errata.Rewriter{
		Field:       "title",
		Predicate:   `severity == "Critical"`,
		RewriteRule: `title | fmt("[critical] %s")`,
	})
	require.NoError(err)

	payload := errata.Payload{
		ID:       optional.Some("RHSA-2024:0001"),
		Severity: optional.Some("Critical"),
		Title:    optional.Some("kernel update"),
	}
	payload = rewriter.Rewrite(payload)
	require.Equal("[critical] kernel update", payload.Title.TakeOr(""))
}

func TestRewriterFmtWithList(t *testing.T) {
	require := require.New(t)

	rewriter, err := NewCompiledRewriter(errata.Rewriter{
		Field:       "severity",
		Predicate:   `severity == ""`,
		RewriteRule: `[type, id] | fmt("%s/%s")`,
	})
	require.NoError(err)

	payload := rewriter.Rewrite(errata.Payload{
		ID:   optional.Some("RHEA-2024:0001"),
		Type: optional.Some("enhancement"),
	})
	require.Equal("enhancement/RHEA-2024:0001", payload.Severity.TakeOr(""))
}

func TestNewCompiledRewriterErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := NewCompiledRewriter(errata.Rewriter{
		Field:       "description",
		Predicate:   `true`,
		RewriteRule: `"x"`,
	})
	assert.ErrorContains(err, "cannot be rewritten")

	_, err = NewCompiledRewriter(errata.Rewriter{
		Predicate:   `"not a bool"`,
		RewriteRule: `"x"`,
	})
	assert.ErrorContains(err, "predicate")

	_, err = NewCompiledRewriter(errata.Rewriter{
		Predicate:   `true`,
		RewriteRule: `1 + 1`,
	})
	assert.ErrorContains(err, "rewrite rule")
}

func TestCompileRewritersReportsRuleNumber(t *testing.T) {
	require := require.New(t)

	config := errata.Config{Rewriters: []errata.Rewriter{
		{Predicate: `true`, RewriteRule: `"security"`},
		{Predicate: `id ==`, RewriteRule: `"security"`},
	}}
	_, err := CompileRewriters(config)
	require.ErrorContains(err, "rewrite rule 2")

	config.Rewriters = config.Rewriters[:1]
	rewriters, err := CompileRewriters(config)
	require.NoError(err)
	require.Len(rewriters, 1)
}

func TestIsRewritableField(t *testing.T) {
	assert := assert.New(t)

	for _, field := range []string{"type", "severity", "title"} {
		assert.True(isRewritableField(field), field)
	}
	assert.False(isRewritableField("id"))
	assert.False(isRewritableField(""))
}
