package utils

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

// serverHeaderPattern matches e.g. "Nexus/3.21.2-03 (OSS)"
var serverHeaderPattern = regexp.MustCompile(`Nexus/(\d+)\.(\d+)\.(\d+)`)

// ParseServerHeader extracts the release version from a Nexus Server header.
// The build suffix ("-03") is discarded: semver would otherwise treat it as
// a prerelease and order 3.21.2-03 before 3.21.2.
func ParseServerHeader(header string) (*semver.Version, error) {
	match := serverHeaderPattern.FindStringSubmatch(header)
	if match == nil {
		return nil, fmt.Errorf("unrecognised server header %q", header)
	}

	v, err := semver.NewVersion(fmt.Sprintf("%s.%s.%s", match[1], match[2], match[3]))
	if err != nil {
		log.Warn().Str("header", header).Err(err).Msg("invalid semver version")
		return nil, err
	}
	return v, nil
}

// AtLeast reports whether version satisfies the minimum. An unknown (nil)
// version satisfies every minimum.
func AtLeast(version, minimum *semver.Version) bool {
	if version == nil || minimum == nil {
		return true
	}
	return !version.LessThan(minimum)
}
