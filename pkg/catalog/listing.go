package catalog

import (
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"golang.org/x/net/html"
)

// ParseListing returns the entry names of an HTML directory index, in page
// order. Navigation links, the parent directory and daily builds are dropped;
// trailing slashes are removed from directory names.
func ParseListing(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)

	var (
		names  []string
		inLink bool
		href   string
		text   strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return names, nil
		case html.StartTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			inLink, href = true, ""
			text.Reset()
			for _, a := range tok.Attr {
				if a.Key == "href" {
					href = a.Val
				}
			}
		case html.TextToken:
			if inLink {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			if z.Token().Data != "a" || !inLink {
				continue
			}
			inLink = false
			if name, ok := entryName(href, text.String()); ok {
				names = append(names, name)
			}
		}
	}
}

func entryName(href, text string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "/") || strings.Contains(href, "://") {
		return "", false
	}
	if strings.Contains(text, "Parent Directory") || strings.Contains(href, "daily") || strings.Contains(text, "daily") {
		return "", false
	}
	name := strings.Trim(strings.TrimSpace(text), "/")
	return name, name != ""
}

// SortRevisions orders revisions newest first. Names that are not versions,
// such as "current" or "pending", come first in their listing order.
func SortRevisions(revisions []string) {
	sort.SliceStable(revisions, func(i, j int) bool {
		vi, erri := version.NewVersion(revisions[i])
		vj, errj := version.NewVersion(revisions[j])
		switch {
		case erri != nil && errj != nil:
			return false
		case erri != nil:
			return true
		case errj != nil:
			return false
		default:
			return vi.GreaterThan(vj)
		}
	})
}
