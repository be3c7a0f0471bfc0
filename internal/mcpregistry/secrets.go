package mcpregistry

import (
	"regexp"
	"sort"
	"strings"
)

var sensitiveEnvNamePattern = regexp.MustCompile(`(?i)(token|secret|password|api_key)`)
var sensitiveArgPattern = regexp.MustCompile(`(?i)(token|secret|api_key)=`)

// InlineSecretWarnings scans an entry's env and args for values that look
// like literal secrets rather than references to a secret manager (spec
// §4.6): an env var whose name matches token/secret/password/api_key but
// whose value doesn't start with "${", or an arg matching
// token=/secret=/api_key= without "${".
func InlineSecretWarnings(e CatalogEntry) []string {
	var warnings []string

	envKeys := make([]string, 0, len(e.Env))
	for k := range e.Env {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)
	for _, k := range envKeys {
		if !sensitiveEnvNamePattern.MatchString(k) {
			continue
		}
		if strings.HasPrefix(e.Env[k], "${") {
			continue
		}
		warnings = append(warnings, "env "+k+" on "+e.CatalogID+" looks like an inline secret")
	}

	for _, arg := range e.Args {
		loc := sensitiveArgPattern.FindStringIndex(arg)
		if loc == nil {
			continue
		}
		value := arg[loc[1]:]
		if strings.HasPrefix(value, "${") {
			continue
		}
		warnings = append(warnings, "argument on "+e.CatalogID+" looks like an inline secret: "+arg)
	}

	return warnings
}
