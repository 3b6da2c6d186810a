package updater

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateVersion(t *testing.T) {
	valid := []string{"2.0.0", "0.1.9", "10.20.30"}
	for _, v := range valid {
		if err := ValidateVersion(v); err != nil {
			t.Errorf("ValidateVersion(%q) = %v, want nil", v, err)
		}
	}

	invalid := []string{"v2.0.0", "2.0", "2.0.0-rc1", "2.0.0/../../etc", "latest", ""}
	for _, v := range invalid {
		if err := ValidateVersion(v); err == nil {
			t.Errorf("ValidateVersion(%q) = nil, want error", v)
		}
	}
}

// makeArchive builds a gzipped tarball with the given name -> content
// entries. Directory entries end with "/".
func makeArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		if strings.HasSuffix(name, "/") {
			if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
				t.Fatal(err)
			}
			continue
		}
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUpdateInstallsRelease(t *testing.T) {
	archive := makeArchive(t, map[string]string{
		"botsee-skill-2.1.0/":                   "",
		"botsee-skill-2.1.0/SKILL.md":           "# BotSee",
		"botsee-skill-2.1.0/scripts/":           "",
		"botsee-skill-2.1.0/scripts/botsee.py":  "print('hi')",
		"botsee-skill-2.1.0/scripts/helpers.py": "pass",
	})

	var requestedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	installDir := filepath.Join(t.TempDir(), "skills", "botsee")
	// Seed a stale script that the install must replace.
	if err := os.MkdirAll(filepath.Join(installDir, "scripts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(installDir, "scripts", "stale.py"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	inst := &Installer{ReleaseBase: srv.URL, InstallDir: installDir}
	if err := inst.Update(context.Background(), "2.1.0"); err != nil {
		t.Fatalf("update: %v", err)
	}

	if requestedPath != "/archive/refs/tags/v2.1.0.tar.gz" {
		t.Errorf("requested path = %q, want the versioned release archive", requestedPath)
	}

	skill, err := os.ReadFile(filepath.Join(installDir, "SKILL.md"))
	if err != nil {
		t.Fatalf("SKILL.md not installed: %v", err)
	}
	if string(skill) != "# BotSee" {
		t.Errorf("SKILL.md = %q, want %q", skill, "# BotSee")
	}

	if _, err := os.Stat(filepath.Join(installDir, "scripts", "botsee.py")); err != nil {
		t.Errorf("scripts/botsee.py not installed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(installDir, "scripts", "stale.py")); !os.IsNotExist(err) {
		t.Errorf("stale script survived install, want it removed")
	}
}

func TestUpdateRejectsBadVersionBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	inst := &Installer{ReleaseBase: srv.URL, InstallDir: t.TempDir()}
	if err := inst.Update(context.Background(), "../evil"); err == nil {
		t.Fatal("expected error for invalid version")
	}
	if called {
		t.Error("network request made for invalid version")
	}
}

func TestUpdateDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	t.Cleanup(srv.Close)

	inst := &Installer{ReleaseBase: srv.URL, InstallDir: t.TempDir()}
	err := inst.Update(context.Background(), "9.9.9")
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("error = %v, want download failure with HTTP 404", err)
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archive := makeArchive(t, map[string]string{
		"../escape.txt": "pwned",
	})

	err := extractTarGz(bytes.NewReader(archive), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Fatalf("error = %v, want path traversal rejection", err)
	}
}

func TestExtractedRootRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "loose.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := extractedRoot(dir); err == nil {
		t.Fatal("expected error when archive has no top-level directory")
	}
}
