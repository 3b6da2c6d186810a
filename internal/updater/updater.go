// Package updater downloads and installs versioned release archives of
// the BotSee skill.
package updater

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultReleaseBase is the GitHub project releases are downloaded from.
const DefaultReleaseBase = "https://github.com/RivalSee/botsee-skill"

var versionRE = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidateVersion rejects anything that is not plain MAJOR.MINOR.PATCH,
// before the version string is interpolated into a URL.
func ValidateVersion(v string) error {
	if !versionRE.MatchString(v) {
		return fmt.Errorf("invalid version format: %q", v)
	}
	return nil
}

// Installer downloads release archives and installs them into InstallDir.
type Installer struct {
	Client      *http.Client
	ReleaseBase string // defaults to DefaultReleaseBase
	InstallDir  string // defaults to ~/.claude/skills/botsee
	Log         io.Writer
}

func (i *Installer) client() *http.Client {
	if i.Client != nil {
		return i.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (i *Installer) releaseURL(version string) string {
	base := i.ReleaseBase
	if base == "" {
		base = DefaultReleaseBase
	}
	return fmt.Sprintf("%s/archive/refs/tags/v%s.tar.gz", strings.TrimRight(base, "/"), version)
}

func (i *Installer) installDir() (string, error) {
	if i.InstallDir != "" {
		return i.InstallDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "skills", "botsee"), nil
}

func (i *Installer) logf(format string, args ...any) {
	if i.Log != nil {
		fmt.Fprintf(i.Log, format+"\n", args...)
	}
}

// Update downloads version, extracts it, and installs SKILL.md and the
// scripts directory into the install dir. The temp extraction directory
// is removed on every path.
func (i *Installer) Update(ctx context.Context, version string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "botsee-update-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	i.logf("Downloading BotSee v%s...", version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.releaseURL(version), nil)
	if err != nil {
		return err
	}
	resp, err := i.client().Do(req)
	if err != nil {
		return fmt.Errorf("downloading release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed (HTTP %d)", resp.StatusCode)
	}

	i.logf("Extracting archive...")
	if err := extractTarGz(resp.Body, tempDir); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}

	sourceDir, err := extractedRoot(tempDir)
	if err != nil {
		return err
	}

	dir, err := i.installDir()
	if err != nil {
		return err
	}
	i.logf("Installing to %s...", dir)
	if err := install(sourceDir, dir); err != nil {
		return err
	}

	i.logf("BotSee updated successfully")
	return nil
}

// extractTarGz unpacks a gzipped tarball into dest, rejecting entries
// whose paths would escape it.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and device nodes have no business in a release archive.
			continue
		}
	}
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

// extractedRoot finds the single top-level directory of an extracted
// release (format: botsee-skill-<version>).
func extractedRoot(tempDir string) (string, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(tempDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("archive extraction failed: no directories found")
}

// install copies SKILL.md and the scripts directory from the extracted
// release into dir, replacing any previous scripts directory.
func install(sourceDir, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating install dir: %w", err)
	}

	if err := copyFile(filepath.Join(sourceDir, "SKILL.md"), filepath.Join(dir, "SKILL.md")); err != nil {
		return fmt.Errorf("installing SKILL.md: %w", err)
	}

	scriptsDst := filepath.Join(dir, "scripts")
	if err := os.RemoveAll(scriptsDst); err != nil {
		return fmt.Errorf("removing old scripts: %w", err)
	}
	if err := copyTree(filepath.Join(sourceDir, "scripts"), scriptsDst); err != nil {
		return fmt.Errorf("installing scripts: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}
