package browser

import (
	"regexp"
	"strings"
)

// globToRegexp compiles a URL glob. "**" matches any run of characters,
// "*" stops at "/".
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		if c == '*' {
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(c)))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// matchURL reports whether url satisfies pattern: a glob when it contains
// "*", otherwise an exact match.
func matchURL(pattern, url string) (bool, error) {
	if !strings.Contains(pattern, "*") {
		return pattern == url, nil
	}
	re, err := globToRegexp(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(url), nil
}
