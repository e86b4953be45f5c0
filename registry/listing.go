package registry

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/paulzierep/micoreca/domain"
)

// archiveSuffixes recognized in simple-index anchor filenames.
var archiveSuffixes = []string{".tar.gz", ".tgz", ".zip", ".tar.bz2"}

// parseJSONListing extracts releases from the JSON release listing:
//
//     {"name": "...", "versions": [{"version": "...", "url": "...", "sha256": "..."}]}
func parseJSONListing(name string, body []byte, baseURL string) (domain.Releases, error) {
	versions := gjson.GetBytes(body, "versions")
	if !versions.Exists() || !versions.IsArray() {
		return nil, fmt.Errorf("malformed release listing for %q: missing versions array", name)
	}

	rels := domain.Releases{}
	for _, item := range versions.Array() {
		version := item.Get("version").String()
		if version == "" {
			continue
		}
		rawURL := item.Get("url").String()
		abs, err := resolveURL(baseURL, rawURL)
		if err != nil {
			return nil, fmt.Errorf("release listing for %q: bad url %q: %s", name, rawURL, err)
		}
		rel := &domain.Release{
			Package:  name,
			Version:  version,
			URL:      abs,
			Filename: filenameForRelease(item.Get("filename").String(), abs),
			SHA256:   item.Get("sha256").String(),
		}
		rels = append(rels, rel)
	}
	if len(rels) == 0 {
		return nil, &NotFoundError{Package: name}
	}
	return rels, nil
}

// parseSimpleIndex extracts releases from an HTML simple index page: one
// anchor per artifact, named <package>-<version><suffix>, with an optional
// data-sha256 attribute.
func parseSimpleIndex(name string, body []byte, pageURL string) (domain.Releases, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing simple index for %q: %s", name, err)
	}

	rels := domain.Releases{}
	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		var (
			filename = strings.TrimSpace(s.Text())
			href     = s.AttrOr("href", "")
		)
		version, ok := versionFromFilename(name, filename)
		if !ok || href == "" {
			return
		}
		abs, err := resolveURL(pageURL, href)
		if err != nil {
			return
		}
		rel := &domain.Release{
			Package:  name,
			Version:  version,
			URL:      abs,
			Filename: filename,
			SHA256:   s.AttrOr("data-sha256", ""),
		}
		rels = append(rels, rel)
	})
	if len(rels) == 0 {
		return nil, &NotFoundError{Package: name}
	}
	return rels, nil
}

// filenameForRelease falls back to the basename of the artifact URL when the
// listing does not carry an explicit filename.
func filenameForRelease(filename string, artifactURL string) string {
	if filename != "" {
		return filename
	}
	u, err := url.Parse(artifactURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// versionFromFilename extracts "1.17" from "samtools-1.17.tar.gz".
func versionFromFilename(name string, filename string) (string, bool) {
	stem := ""
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(filename, suffix) {
			stem = strings.TrimSuffix(filename, suffix)
			break
		}
	}
	if stem == "" {
		return "", false
	}
	prefix := name + "-"
	if !strings.HasPrefix(stem, prefix) {
		return "", false
	}
	version := stem[len(prefix):]
	if version == "" {
		return "", false
	}
	return version, true
}

func resolveURL(base string, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
