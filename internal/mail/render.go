package mail

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes {{variable}} placeholders in a template string. Unknown
// placeholders are left untouched so a missing variable is visible in previews.
func Render(template string, vars map[string]string) string {
	if template == "" || len(vars) == 0 {
		return template
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.Trim(match, "{} \t")
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

// Placeholders returns the distinct placeholder names referenced by a template.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, match := range matches {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
