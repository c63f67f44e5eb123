package format

import "time"

// filetimeEpochDelta is the number of 100-nanosecond intervals between the
// Windows FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta = 116444736000000000

// FileTimeToUTC converts a Windows FILETIME (100ns intervals since
// 1601-01-01 UTC) into a time.Time. A zero FILETIME maps to the zero
// time.Time rather than 1601, matching how callers treat "never written"
// timestamps.
func FileTimeToUTC(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	unitsSinceUnixEpoch := int64(ft) - filetimeEpochDelta
	return time.Unix(0, unitsSinceUnixEpoch*100).UTC()
}
