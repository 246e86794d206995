package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"learnwise/internal/util"

	"github.com/PuerkitoBio/goquery"
)

const containerPath = "META-INF/container.xml"

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// EPUB reads chapters in spine order. Books without a usable package
// document fall back to every HTML entry in archive order.
func EPUB(p string) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("open epub: %w", err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	chapters := spineOrder(files)
	if len(chapters) == 0 {
		for name := range files {
			if isHTML(name) {
				chapters = append(chapters, name)
			}
		}
		sort.Strings(chapters)
	}

	parts := make([]string, 0, len(chapters))
	for _, name := range chapters {
		f, ok := files[name]
		if !ok {
			continue
		}
		text, err := chapterText(f)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	out := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if out == "" {
		return "", util.ErrNoExtractableText
	}
	return out, nil
}

func spineOrder(files map[string]*zip.File) []string {
	var container epubContainer
	if err := decodeXML(files[containerPath], &container); err != nil || len(container.Rootfiles) == 0 {
		return nil
	}
	opfPath := container.Rootfiles[0].FullPath
	var pkg epubPackage
	if err := decodeXML(files[opfPath], &pkg); err != nil {
		return nil
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}
	base := path.Dir(opfPath)
	out := make([]string, 0, len(pkg.Spine))
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		out = append(out, path.Join(base, href))
	}
	return out
}

func decodeXML(f *zip.File, v any) error {
	if f == nil {
		return fmt.Errorf("missing entry")
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func chapterText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open epub chapter %s: %w", f.Name, err)
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(rc, 32<<20))
	if err != nil {
		return "", fmt.Errorf("parse epub chapter %s: %w", f.Name, err)
	}
	doc.Find("script, style").Remove()

	blocks := make([]string, 0, 32)
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(blocks, "\n"), nil
}

func isHTML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".xhtml", ".html", ".htm":
		return true
	}
	return false
}
