package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// unpackArchive materializes a downloaded artifact under dest.  Gzipped
// tarballs are extracted; anything else is written through as a single file
// named after the artifact.
func unpackArchive(content []byte, filename string, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return errors.Wrapf(err, "creating %q", dest)
	}

	if strings.HasSuffix(filename, ".tar.gz") || strings.HasSuffix(filename, ".tgz") {
		return untarGz(content, dest)
	}

	if filename == "" {
		filename = "artifact"
	}
	if err := os.WriteFile(filepath.Join(dest, filepath.Base(filename)), content, 0644); err != nil {
		return errors.Wrapf(err, "writing %q", filename)
	}
	return nil
}

func untarGz(content []byte, dest string) error {
	gz, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return errors.Wrap(err, "opening gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading tar stream")
		}

		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "creating directory %q", hdr.Name)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrapf(err, "creating parent of %q", hdr.Name)
			}
			mode := os.FileMode(hdr.Mode & 0777)
			if mode == 0 {
				mode = 0644
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
			if err != nil {
				return errors.Wrapf(err, "creating %q", hdr.Name)
			}
			if _, err = io.Copy(f, tr); err != nil {
				f.Close()
				return errors.Wrapf(err, "extracting %q", hdr.Name)
			}
			if err = f.Close(); err != nil {
				return errors.Wrapf(err, "closing %q", hdr.Name)
			}

		default:
			// Symlinks, devices, etc are not part of the artifact format.
			continue
		}
	}
	return nil
}

// securePath rejects entries which would escape the destination directory.
func securePath(dest string, name string) (string, error) {
	target := filepath.Join(dest, filepath.Clean(name))
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", errors.Errorf("archive entry %q escapes extraction root", name)
	}
	return target, nil
}
