// Package seedlist reads the whitespace-separated page-list file format
// used to seed a product checker's crawl from a list of changed docs
// pages, rather than (or in addition to) a single root URL.
//
// Grounded on utils/read_input_pages.py.
package seedlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read parses path (whitespace-separated relative page paths, one or more
// per line) into absolute seed URLs under baseURL.
//
// Each path has a trailing ".md" stripped (replaced with a trailing "/",
// since the docs site serves these as directory indexes), a leading
// "ambassador-docs/" stripped, and (only when the path contains the
// substring "telepresence") its first "v" character removed — matching
// utils/read_input_pages.py's __parse_file_to_page.
func Read(path, baseURL string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed list %q: %w", path, err)
	}
	defer f.Close()
	return read(f, baseURL)
}

func read(r io.Reader, baseURL string) ([]string, error) {
	var pages []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		for _, field := range strings.Fields(line) {
			pages = append(pages, toPage(field, baseURL))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func toPage(pagePath, baseURL string) string {
	if strings.HasSuffix(pagePath, ".md") {
		pagePath = strings.TrimSuffix(pagePath, ".md") + "/"
	}
	pagePath = strings.TrimPrefix(pagePath, "ambassador-docs/")
	if strings.Contains(pagePath, "telepresence") {
		pagePath = strings.Replace(pagePath, "v", "", 1)
	}
	return baseURL + pagePath
}
