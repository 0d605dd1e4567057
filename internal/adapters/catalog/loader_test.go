package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/hops/internal/adapters/catalog"
	"go.trai.ch/hops/internal/core/domain"
)

func writeFormula(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFormula(t, dir, "zlib.yaml", `
name: zlib
version: "1.3"
bottle:
  url: https://example.com/zlib-1.3.tar.gz
  sha256: aaaa
`)
	writeFormula(t, dir, "curl.yaml", `
name: curl
version: "8.0"
dependencies:
  - name: zlib
  - name: brotli
    kind: optional
bottle:
  url: https://example.com/curl-8.0.tar.gz
  sha256: bbbb
source:
  url: https://example.com/curl-8.0-src.tar.gz
  sha256: cccc
build: autotools
runtime_env:
  CURL_HOME: /var/curl
`)
	writeFormula(t, dir, "notes.txt", "not a formula")

	snap, err := catalog.Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"curl", "zlib"}, snap.Names())

	spec, err := snap.Spec("curl")
	require.NoError(t, err)
	require.Equal(t, "8.0", spec.Version.String())
	require.Len(t, spec.Dependencies, 2)
	// An omitted kind defaults to required.
	require.Equal(t, domain.KindRequired, spec.Dependencies[0].Kind)
	require.Equal(t, domain.KindOptional, spec.Dependencies[1].Kind)
	require.NotNil(t, spec.Bottle)
	require.NotNil(t, spec.Source)
	require.Equal(t, domain.BuildAutotools, spec.BuildSystem)
	require.Equal(t, "/var/curl", spec.RuntimeEnv["CURL_HOME"])
}

func TestLoad_UnknownName(t *testing.T) {
	snap, err := catalog.Load(t.TempDir())
	require.NoError(t, err)

	_, err = snap.Spec("ghost")
	require.ErrorIs(t, err, domain.ErrUnknownPackage)
}

func TestLoad_DuplicateFormula(t *testing.T) {
	dir := t.TempDir()
	doc := `
name: zlib
version: "1.3"
bottle:
  url: https://example.com/zlib.tar.gz
  sha256: aaaa
`
	writeFormula(t, dir, "zlib.yaml", doc)
	writeFormula(t, dir, "zlib-copy.yaml", doc)

	_, err := catalog.Load(dir)
	require.ErrorContains(t, err, "duplicate formula")
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"missing name": {
			doc:  "version: \"1.0\"\nbottle:\n  url: u\n  sha256: s\n",
			want: "missing a name",
		},
		"missing version": {
			doc:  "name: x\nbottle:\n  url: u\n  sha256: s\n",
			want: "missing a version",
		},
		"bad dependency kind": {
			doc:  "name: x\nversion: \"1.0\"\ndependencies:\n  - name: y\n    kind: sometimes\nbottle:\n  url: u\n  sha256: s\n",
			want: "unknown dependency kind",
		},
		"source without build system": {
			doc:  "name: x\nversion: \"1.0\"\nsource:\n  url: u\n  sha256: s\n",
			want: "unknown build system",
		},
		"artifact missing checksum": {
			doc:  "name: x\nversion: \"1.0\"\nbottle:\n  url: u\n",
			want: "missing url or sha256",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFormula(t, dir, "x.yaml", tc.doc)
			_, err := catalog.Load(dir)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoad_NoArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFormula(t, dir, "x.yaml", "name: x\nversion: \"1.0\"\n")

	_, err := catalog.Load(dir)
	require.ErrorIs(t, err, domain.ErrNoArtifact)
}

func TestLoad_BundleArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFormula(t, dir, "somecask.yaml", `
name: somecask
version: "2.0"
bottle:
  url: https://example.com/somecask.tar.gz
  sha256: dddd
artifacts:
  - kind: app
    source: Some.app
  - kind: binary
    source: Contents/MacOS/somecli
    target: somecli
`)

	snap, err := catalog.Load(dir)
	require.NoError(t, err)

	spec, err := snap.Spec("somecask")
	require.NoError(t, err)
	require.Len(t, spec.Artifacts, 2)
	require.Equal(t, "app", spec.Artifacts[0].Kind)
	require.Equal(t, "somecli", spec.Artifacts[1].Target)
}
