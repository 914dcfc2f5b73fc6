package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	template := "Hi {{first_name}}, welcome to {{ program_name }}!"

	rendered := Render(template, map[string]string{
		"first_name":   "Ada",
		"program_name": "Orion Beta",
	})

	require.Equal(t, "Hi Ada, welcome to Orion Beta!", rendered)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	template := "Hi {{first_name}}, your code is {{invite_code}}"

	rendered := Render(template, map[string]string{"first_name": "Ada"})

	require.Equal(t, "Hi Ada, your code is {{invite_code}}", rendered)
}

func TestRenderEmptyInputs(t *testing.T) {
	require.Equal(t, "", Render("", map[string]string{"a": "b"}))
	require.Equal(t, "no placeholders", Render("no placeholders", nil))
}

func TestPlaceholdersAreDistinct(t *testing.T) {
	template := "{{first_name}} {{last_name}} {{first_name}} {{ email }}"

	names := Placeholders(template)

	require.Equal(t, []string{"first_name", "last_name", "email"}, names)
}

func TestPlaceholdersNoneFound(t *testing.T) {
	require.Empty(t, Placeholders("plain text with {single} braces"))
}
