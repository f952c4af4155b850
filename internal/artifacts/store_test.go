package artifacts

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultPaths(t *testing.T) {
	s := New(afero.NewMemMapFs(), Paths{})
	require.Equal(t, Paths{
		CodeTemplate: DefaultCodeTemplatePath,
		BackendMain:  DefaultMainPath,
		APISchema:    DefaultAPISchemaPath,
	}, s.Paths())
}

func TestNew_OverridesPaths(t *testing.T) {
	s := New(afero.NewMemMapFs(), Paths{BackendMain: "/out/main.rs"})
	require.Equal(t, "/out/main.rs", s.Paths().BackendMain)
	require.Equal(t, DefaultAPISchemaPath, s.Paths().APISchema)
}

func TestReadCodeTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, DefaultCodeTemplatePath, []byte("fn main() {}"), 0o644))

	got, err := New(fs, Paths{}).ReadCodeTemplate()
	require.NoError(t, err)
	require.Equal(t, "fn main() {}", got)
}

func TestReadCodeTemplate_Missing(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), Paths{}).ReadCodeTemplate()
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorContains(t, err, "not found")
}

func TestSaveBackendCode_CreatesParentAndOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, Paths{})

	require.NoError(t, s.SaveBackendCode("first"))
	require.NoError(t, s.SaveBackendCode("second"))

	b, err := afero.ReadFile(fs, DefaultMainPath)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))
}

func TestSaveAPIEndpoints(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, Paths{APISchema: "/tmp/schemas/api.json"})

	require.NoError(t, s.SaveAPIEndpoints(`[{"route":"/"}]`))
	b, err := afero.ReadFile(fs, "/tmp/schemas/api.json")
	require.NoError(t, err)
	require.JSONEq(t, `[{"route":"/"}]`, string(b))
}

func TestSave_ReadOnlyFs(t *testing.T) {
	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), Paths{})
	require.ErrorContains(t, s.SaveBackendCode("x"), "save backend code")
	require.ErrorContains(t, s.SaveAPIEndpoints("[]"), "save api endpoints")
}
