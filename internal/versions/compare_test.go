package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareWithServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		server string
		client string
		want   Skew
	}{
		{name: "same release", server: "v1.4.0", client: "v1.4.0", want: SkewNone},
		{name: "same release with and without prefix", server: "1.4.0", client: "v1.4.0", want: SkewNone},
		{name: "build metadata ignored", server: "v1.4.0+9f2c1ab", client: "v1.4.0", want: SkewNone},
		{name: "server patch ahead", server: "v1.4.1", client: "v1.4.0", want: SkewServerNewer},
		{name: "server major ahead", server: "v2.0.0", client: "v1.9.9", want: SkewServerNewer},
		{name: "server behind", server: "v1.3.7", client: "v1.4.0", want: SkewServerOlder},
		{name: "server release after client prerelease", server: "v1.4.0", client: "v1.4.0-rc.1", want: SkewServerNewer},
		{name: "server prerelease before client release", server: "v1.4.0-rc.2", client: "v1.4.0", want: SkewServerOlder},
		{name: "git describe build on server", server: "v1.4.0-3-g9f2c1ab", client: "v1.3.0", want: SkewServerNewer},
		{name: "dev server", server: "dev", client: "v1.4.0", want: SkewUnknown},
		{name: "dev client", server: "v1.4.0", client: "dev", want: SkewUnknown},
		{name: "dev with suffix", server: "dev-9f2c1ab", client: "v1.4.0", want: SkewUnknown},
		{name: "both dev", server: "dev", client: "dev", want: SkewUnknown},
		{name: "empty server version", server: "", client: "v1.4.0", want: SkewUnknown},
		{name: "unparsable server version", server: "nightly", client: "v1.4.0", want: SkewUnknown},
		{name: "unparsable client version", server: "v1.4.0", client: "custom build", want: SkewUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CompareWithServer(tt.server, tt.client))
		})
	}
}
