package aifunc

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup_KnownFunction(t *testing.T) {
	fn, ok := Lookup("print_project_scope")
	require.True(t, ok)
	require.Contains(t, fn("anything"), "fn print_project_scope")
}

func TestLookup_TrimsName(t *testing.T) {
	_, ok := Lookup("  convert_user_input_to_goal ")
	require.True(t, ok)
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("print_poetry")
	require.False(t, ok)
}

func TestNames_SortedAndComplete(t *testing.T) {
	names := Names()
	require.Len(t, names, 7)
	require.True(t, sort.StringsAreSorted(names))
	for _, name := range names {
		fn, ok := Lookup(name)
		require.True(t, ok, name)
		require.Contains(t, fn(""), "fn "+name+"(")
	}
}

func TestPrintProjectScope_DescribesJSONKeys(t *testing.T) {
	out := PrintProjectScope("")
	require.Contains(t, out, "is_crud_required")
	require.Contains(t, out, "is_user_login_and_logout")
	require.Contains(t, out, "is_external_urls_required")
}
