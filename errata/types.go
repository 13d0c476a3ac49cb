package errata

import "slices"

// Advisory type labels grouped into the three classification buckets.
var (
	SecurityTypes    = []string{"security"}
	BugfixTypes      = []string{"bugfix", "recommended"}
	EnhancementTypes = []string{"enhancement", "optional"}
)

const (
	BucketSecurity    = "security"
	BucketBugfix      = "bugfix"
	BucketEnhancement = "enhancement"
)

// Types returns all known advisory type labels.
func Types() []string {
	out := make([]string, 0, len(SecurityTypes)+len(BugfixTypes)+len(EnhancementTypes))
	out = append(out, SecurityTypes...)
	out = append(out, BugfixTypes...)
	return append(out, EnhancementTypes...)
}

func IsKnownType(typ string) bool {
	return slices.Contains(Types(), typ)
}

// TypesForBucket expands a bucket name to its type labels.
func TypesForBucket(bucket string) ([]string, bool) {
	switch bucket {
	case BucketSecurity:
		return SecurityTypes, true
	case BucketBugfix:
		return BugfixTypes, true
	case BucketEnhancement:
		return EnhancementTypes, true
	}
	return nil, false
}
