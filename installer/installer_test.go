package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gigawatt.io/testlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulzierep/micoreca/domain"
	"github.com/paulzierep/micoreca/env"
	"github.com/paulzierep/micoreca/registry"
)

// makeTarGz builds a gzipped tarball from a map of path -> content.
func makeTarGz(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0755,
			Size: int64(len(content)),
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

type fixtureArtifact struct {
	version string
	content []byte
	sha256  string
}

// newFixtureIndex serves a minimal JSON release listing plus artifacts for a
// set of packages.
func newFixtureIndex(t *testing.T, packages map[string][]*fixtureArtifact) *httptest.Server {
	mux := http.NewServeMux()
	for name, artifacts := range packages {
		name, artifacts := name, artifacts

		var listing strings.Builder
		listing.WriteString(fmt.Sprintf(`{"name": %q, "versions": [`, name))
		for i, art := range artifacts {
			if i > 0 {
				listing.WriteString(",")
			}
			filename := fmt.Sprintf("%s-%s.tar.gz", name, art.version)
			listing.WriteString(fmt.Sprintf(`{"version": %q, "url": "/artifacts/%s", "filename": %q, "sha256": %q}`,
				art.version, filename, filename, art.sha256))
		}
		listing.WriteString("]}")

		mux.HandleFunc("/api/packages/"+name, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, listing.String())
		})
		for _, art := range artifacts {
			art := art
			mux.HandleFunc(fmt.Sprintf("/artifacts/%s-%s.tar.gz", name, art.version), func(w http.ResponseWriter, r *http.Request) {
				w.Write(art.content)
			})
		}
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func artifact(t *testing.T, name string, version string, tamperSum string) *fixtureArtifact {
	content := makeTarGz(t, map[string]string{
		"bin/" + name:             "#!/bin/sh\necho " + name,
		name + "-" + version + "/README": name + " " + version,
	})
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	if tamperSum != "" {
		digest = tamperSum
	}
	return &fixtureArtifact{version: version, content: content, sha256: digest}
}

func newTestEnv(t *testing.T) *env.Environment {
	root := filepath.Join(os.TempDir(), testlib.CurrentRunningTest())
	os.RemoveAll(root)
	t.Cleanup(func() {
		os.RemoveAll(root)
	})
	e, err := env.Create(root)
	require.NoError(t, err)
	return e
}

func newInstaller(t *testing.T, e *env.Environment, server *httptest.Server) *Installer {
	cfg := registry.NewConfig(server.URL)
	cfg.MaxRetries = 0
	return New(e, registry.NewClient(cfg))
}

func parseReqs(t *testing.T, manifest string) []*domain.Requirement {
	reqs, err := domain.ParseManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	return reqs
}

func TestInstall(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{
		"samtools": {artifact(t, "samtools", "1.15", ""), artifact(t, "samtools", "1.17", "")},
		"bwa":      {artifact(t, "bwa", "0.7.17", "")},
	})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	result, err := inst.Install(parseReqs(t, "samtools==1.17\nbwa\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"samtools==1.17", "bwa==0.7.17"}, result.Installed)
	assert.Empty(t, result.Satisfied)

	for _, dir := range []string{e.PackageDir("samtools", "1.17"), e.PackageDir("bwa", "0.7.17")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	raw, err := os.ReadFile(filepath.Join(e.PackageDir("bwa", "0.7.17"), "bin", "bwa"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "echo bwa")

	state, err := e.State()
	require.NoError(t, err)
	require.Contains(t, state.Installed, "samtools")
	assert.Equal(t, "1.17", state.Installed["samtools"].Version)
	assert.NotEmpty(t, state.Installed["samtools"].SHA256)

	// No staging dirs may survive.
	entries, err := os.ReadDir(e.Root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".staging-"), "leftover staging dir %q", entry.Name())
	}
}

func TestInstallRerunIsNoop(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{
		"samtools": {artifact(t, "samtools", "1.17", "")},
	})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	reqs := parseReqs(t, "samtools>=1.0\n")

	result, err := inst.Install(reqs)
	require.NoError(t, err)
	require.Len(t, result.Installed, 1)

	result, err = inst.Install(reqs)
	require.NoError(t, err)
	assert.Empty(t, result.Installed)
	assert.Equal(t, []string{"samtools>=1.0"}, result.Satisfied)
}

func TestInstallUnknownPackageInstallsNothing(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{
		"samtools": {artifact(t, "samtools", "1.17", "")},
	})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	_, err := inst.Install(parseReqs(t, "samtools\nno-such-tool\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-tool")

	// Resolution failed, so not even the resolvable package may have been
	// installed.
	state, err := e.State()
	require.NoError(t, err)
	assert.Empty(t, state.Installed)
	entries, err := os.ReadDir(e.PkgsDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInstallUnsatisfiableConstraintInstallsNothing(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{
		"samtools": {artifact(t, "samtools", "1.17", "")},
		"bwa":      {artifact(t, "bwa", "0.7.17", "")},
	})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	_, err := inst.Install(parseReqs(t, "bwa\nsamtools>=2.0\n"))
	require.Error(t, err)
	_, ok := err.(*domain.NoMatchError)
	assert.True(t, ok, "expected *domain.NoMatchError, got %T: %v", err, err)

	state, err := e.State()
	require.NoError(t, err)
	assert.Empty(t, state.Installed)
}

func TestInstallChecksumMismatchInstallsNothing(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{
		"samtools": {artifact(t, "samtools", "1.17", strings.Repeat("00", 32))},
	})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	_, err := inst.Install(parseReqs(t, "samtools\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	state, err := e.State()
	require.NoError(t, err)
	assert.Empty(t, state.Installed)
	entries, err := os.ReadDir(e.PkgsDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInstallMinimalJSONListing(t *testing.T) {
	content := makeTarGz(t, map[string]string{
		"bin/samtools": "#!/bin/sh\necho samtools",
	})
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	// Listing carries only version, url, and sha256; no filename field.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/packages/samtools", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name": "samtools", "versions": [{"version": "1.17", "url": "/artifacts/samtools-1.17.tar.gz", "sha256": %q}]}`, digest)
	})
	mux.HandleFunc("/artifacts/samtools-1.17.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	_, err := inst.Install(parseReqs(t, "samtools==1.17\n"))
	require.NoError(t, err)

	// The tarball must be unpacked, not committed as one opaque blob.
	raw, err := os.ReadFile(filepath.Join(e.PackageDir("samtools", "1.17"), "bin", "samtools"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "echo samtools")

	_, err = os.Stat(filepath.Join(e.PackageDir("samtools", "1.17"), "artifact"))
	assert.True(t, os.IsNotExist(err), "expected no opaque artifact blob in package dir")
}

func TestInstallDoesNotMutateCachedListing(t *testing.T) {
	content := makeTarGz(t, map[string]string{
		"bin/samtools": "#!/bin/sh\necho samtools",
	})

	// Listing advertises no digest at all.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/packages/samtools", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "samtools", "versions": [{"version": "1.17", "url": "/artifacts/samtools-1.17.tar.gz", "filename": "samtools-1.17.tar.gz"}]}`)
	})
	mux.HandleFunc("/artifacts/samtools-1.17.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	e := newTestEnv(t)
	cfg := registry.NewConfig(server.URL)
	cfg.MaxRetries = 0
	reg := registry.NewClient(cfg)

	_, err := New(e, reg).Install(parseReqs(t, "samtools\n"))
	require.NoError(t, err)

	// The actually-received digest lands in environment state.
	state, err := e.State()
	require.NoError(t, err)
	require.Contains(t, state.Installed, "samtools")
	assert.NotEmpty(t, state.Installed["samtools"].SHA256)

	// The cached listing stays exactly as the index advertised it.
	rels, err := reg.Releases("samtools")
	require.NoError(t, err)
	assert.Empty(t, rels.Newest().SHA256)
}

func TestInstallUpgradeRemovesSupersededVersion(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{
		"samtools": {artifact(t, "samtools", "1.15", ""), artifact(t, "samtools", "1.17", "")},
	})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	_, err := inst.Install(parseReqs(t, "samtools==1.15\n"))
	require.NoError(t, err)

	_, err = inst.Install(parseReqs(t, "samtools==1.17\n"))
	require.NoError(t, err)

	if _, err := os.Stat(e.PackageDir("samtools", "1.15")); !os.IsNotExist(err) {
		t.Errorf("Expected superseded version dir to be removed, stat err=%v", err)
	}
	state, err := e.State()
	require.NoError(t, err)
	assert.Equal(t, "1.17", state.Installed["samtools"].Version)

	// State must never reference a removed path.
	_, err = os.Stat(state.Installed["samtools"].Path)
	require.NoError(t, err)
}

func TestInstallRejectsDuplicateRequirements(t *testing.T) {
	server := newFixtureIndex(t, map[string][]*fixtureArtifact{})
	e := newTestEnv(t)
	inst := newInstaller(t, e, server)

	_, err := inst.Install(parseReqs(t, "samtools==1.17\nsamtools>=1.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}
