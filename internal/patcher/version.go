package patcher

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Version is a dotted numeric version such as 1.3.5.3. Missing trailing parts are zero.
type Version [4]int

func ParseVersion(s string) (Version, error) {
	var v Version
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > len(v) {
		return v, errors.Newf("malformed version %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v, errors.Newf("malformed version %q", s)
		}
		v[i] = n
	}
	return v, nil
}

func (v Version) Compare(other Version) int {
	for i := range v {
		switch {
		case v[i] < other[i]:
			return -1
		case v[i] > other[i]:
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// VersionRange is an inclusive range. An empty bound is open.
type VersionRange struct {
	Low  string `mapstructure:"low"`
	High string `mapstructure:"high"`
}

// Check returns ErrUnsupportedVersion when version falls outside the range.
func (r VersionRange) Check(version string) error {
	v, err := ParseVersion(version)
	if err != nil {
		return errors.Mark(err, ErrUnsupportedVersion)
	}
	if r.Low != "" {
		low, err := ParseVersion(r.Low)
		if err != nil {
			return err
		}
		if v.Compare(low) < 0 {
			return errors.Wrapf(ErrUnsupportedVersion, "%s is older than %s", version, r.Low)
		}
	}
	if r.High != "" {
		high, err := ParseVersion(r.High)
		if err != nil {
			return err
		}
		if v.Compare(high) > 0 {
			return errors.Wrapf(ErrUnsupportedVersion, "%s is newer than %s", version, r.High)
		}
	}
	return nil
}
