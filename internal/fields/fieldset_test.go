package fields

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldset(t *testing.T) {
	list := compileSample(t)

	elements := Fieldset(list, PublicEdit, Values{"userprofile_org": "beta"})
	require.Len(t, elements, 4)

	names := make([]string, len(elements))
	for i, el := range elements {
		names[i] = el.Name
	}
	require.Equal(t, []string{"userprofile_phone", "userprofile_org", "userprofile_topics", "userprofile_newsletter"}, names)

	require.Nil(t, elements[0].Value)
	require.True(t, elements[0].Required)
	require.Equal(t, "beta", elements[1].Value)
	require.Equal(t, "Select an organisation", elements[1].EmptyOption)
	require.True(t, elements[2].Multiple)
	require.Equal(t, "1", elements[3].Value)
}

func TestDisplay(t *testing.T) {
	list := compileSample(t)
	values := Values{
		"userprofile_phone":  "555-0100",
		"userprofile_org":    "alpha",
		"userprofile_topics": []any{"history", "art"},
		"userprofile_age":    float64(7),
	}

	shown := Display(list, PublicShow, values)
	require.Len(t, shown, 3)
	require.Equal(t, "Phone", shown[0].Label)
	require.Equal(t, []string{"history", "art"}, shown[1].Display)
	require.Equal(t, []string{"7"}, shown[2].Display)

	admin := Display(list, AdminShow, values)
	require.Len(t, admin, 4)
	require.Equal(t, "Organisation", admin[1].Label)
	require.Equal(t, []string{"Alpha"}, admin[1].Display)
}
