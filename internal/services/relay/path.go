package relay

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var apiVersionSegment = regexp.MustCompile(`rest/api/(\d+|latest)(/|$)`)

// NormalizePath forces the REST API version segment of path to version.
// Paths without a segment are prefixed with /rest/api/{version}.
// Example: ("/rest/api/3/issue/TEST-1", 2) -> "/rest/api/2/issue/TEST-1"
func NormalizePath(path string, version int) string {
	if loc := apiVersionSegment.FindStringSubmatchIndex(path); loc != nil {
		return path[:loc[2]] + fmt.Sprintf("%d", version) + path[loc[3]:]
	}
	return fmt.Sprintf("/rest/api/%d/%s", version, strings.TrimLeft(path, "/"))
}

// buildTargetURL joins base and path with exactly one slash and appends the encoded query
func buildTargetURL(baseURL, path string, query url.Values) string {
	target := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}
