package engine

import (
	"regexp"
	"strings"
)

// ErrorTranslator converts container engine stderr into user-facing hints.
type ErrorTranslator struct{}

// NewErrorTranslator creates a new error translator.
func NewErrorTranslator() *ErrorTranslator {
	return &ErrorTranslator{}
}

var (
	dockerfileRe = regexp.MustCompile(`(?i)failed to (read|solve).*dockerfile|open .*dockerfile.*no such file|unable to prepare context`)
	noImageRe    = regexp.MustCompile(`(?i)no such image:?\s*(\S+)`)
)

// Translate returns a short explanation for well-known engine failures and a
// trimmed excerpt otherwise. An empty stderr yields an empty hint.
func (t *ErrorTranslator) Translate(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "cannot connect to the docker daemon"),
		strings.Contains(lower, "is the docker daemon running"),
		strings.Contains(lower, "error during connect"):
		return "The engine daemon is not running or the current user cannot reach its socket."
	case strings.Contains(lower, "permission denied") && strings.Contains(lower, "docker.sock"):
		return "Permission denied on the engine socket. Add the user to the docker group or run with sufficient privileges."
	case dockerfileRe.MatchString(stderr):
		return "The build-file or build context could not be read. Check build.file and build.context.\n" + t.extractErrorDetail(stderr)
	case strings.Contains(lower, "exec format error"):
		return "A build step ran a binary for another architecture. Install QEMU/binfmt emulation for the target platform."
	case strings.Contains(lower, "unknown flag: --platform"):
		return "This engine version does not support --platform. Upgrade the engine or enable BuildKit."
	case strings.Contains(lower, "no space left on device"):
		return "The disk holding the engine data or the output directory is full."
	}

	if m := noImageRe.FindStringSubmatch(stderr); len(m) > 1 {
		return "Image " + m[1] + " does not exist in the local image store."
	}

	return t.extractErrorDetail(stderr)
}

// extractErrorDetail keeps the most relevant lines of engine output.
func (t *ErrorTranslator) extractErrorDetail(stderr string) string {
	var relevant []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "ERROR") || strings.HasPrefix(strings.ToLower(line), "error") {
			relevant = append(relevant, line)
		}
	}
	if len(relevant) == 0 {
		lines := strings.Split(stderr, "\n")
		if len(lines) > 3 {
			lines = lines[len(lines)-3:]
		}
		for _, l := range lines {
			if l = strings.TrimSpace(l); l != "" {
				relevant = append(relevant, l)
			}
		}
	}
	if len(relevant) > 5 {
		relevant = append(relevant[:5], "... (run with --verbose for full output)")
	}
	return strings.Join(relevant, "\n")
}
