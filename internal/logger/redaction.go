package logger

import (
	"io"
	"regexp"
	"sync"
)

const mask = "[REDACTED]"

// Credentials and session material that show up in portal traffic and
// error messages. Order matters: cookie values go before the header that
// carries them.
var portalPatterns = []string{
	`EDUPAGE_PASSWORD["\s:=]+[^\s"]+`,
	`PHPSESSID["\s:=]+[^\s";]+`,
	`(?i)set-cookie["\s:=]+[^\n"]+`,
	`Bearer\s+[a-zA-Z0-9._-]+`,
	`(?i)password["\s:=]+[^\s"]+`,
	`pwd["\s:=]+[^\s"]+`,
	`heslo["\s:=]+[^\s"]+`,
	`token["\s:=]+[a-zA-Z0-9._-]{20,}`,
	`secret["\s:=]+[^\s"]+`,
}

// Redactor masks secrets in log lines. It is safe for concurrent use and
// may learn new secrets after the logger is built.
type Redactor struct {
	mu  sync.RWMutex
	res []*regexp.Regexp
}

// NewRedactor returns a redactor loaded with the portal patterns
func NewRedactor() *Redactor {
	r := &Redactor{res: make([]*regexp.Regexp, 0, len(portalPatterns))}
	for _, p := range portalPatterns {
		r.res = append(r.res, regexp.MustCompile(p))
	}
	return r
}

// AddPattern registers an extra regular expression
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.add(re)
	return nil
}

// AddSecret masks every literal occurrence of secret, such as the
// password read at login. Empty values are ignored.
func (r *Redactor) AddSecret(secret string) {
	if secret != "" {
		r.add(regexp.MustCompile(regexp.QuoteMeta(secret)))
	}
}

func (r *Redactor) add(re *regexp.Regexp) {
	r.mu.Lock()
	r.res = append(r.res, re)
	r.mu.Unlock()
}

// Redact applies every pattern to s in registration order
func (r *Redactor) Redact(s string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, re := range r.res {
		s = re.ReplaceAllString(s, mask)
	}
	return s
}

// Wrap returns a writer that redacts each write before passing it to w
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return redactingWriter{next: w, r: r}
}

type redactingWriter struct {
	next io.Writer
	r    *Redactor
}

// Write reports len(p) on success so zerolog does not treat a shorter
// redacted line as a short write
func (w redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.next, w.r.Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
