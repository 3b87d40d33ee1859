package fetch

import "regexp"

// Word characters include non-ASCII letters and digits so tags such as
// #café or #東京 survive intact.
var hashtagRegex = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// ParseHashtags returns the hashtags in s without the leading '#', in order of
// appearance. Duplicates are kept.
func ParseHashtags(s string) []string {
	matches := hashtagRegex.FindAllString(s, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1:])
	}
	return tags
}
