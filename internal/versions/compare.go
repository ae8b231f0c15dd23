package versions

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DevVersion is reported by binaries built without a release version
const DevVersion = "dev"

// Skew describes how a running tracker's version relates to the CLI talking to it
type Skew string

const (
	// SkewNone means both sides run the same release
	SkewNone Skew = "none"
	// SkewServerNewer means the tracker runs a newer release than the CLI
	SkewServerNewer Skew = "server_newer"
	// SkewServerOlder means the tracker runs an older release than the CLI
	SkewServerOlder Skew = "server_older"
	// SkewUnknown means at least one side is a development build or does not
	// carry a release version
	SkewUnknown Skew = "unknown"
)

// CompareWithServer compares the version a tracker reports on /version with
// the CLI's own. A leading "v" is optional and build metadata is ignored.
func CompareWithServer(server, client string) Skew {
	serverRelease, ok := parseRelease(server)
	if !ok {
		return SkewUnknown
	}
	clientRelease, ok := parseRelease(client)
	if !ok {
		return SkewUnknown
	}

	switch serverRelease.Compare(clientRelease) {
	case 1:
		return SkewServerNewer
	case -1:
		return SkewServerOlder
	default:
		return SkewNone
	}
}

// parseRelease rejects development builds and strings that are not
// semantic versions
func parseRelease(v string) (*semver.Version, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == DevVersion || strings.HasPrefix(v, DevVersion+"-") || strings.HasPrefix(v, DevVersion+"+") {
		return nil, false
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, false
	}
	return parsed, true
}
