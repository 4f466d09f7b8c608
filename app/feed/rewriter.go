package feed

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/ianaindex"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

// htmlEscaper matches how enclosure URLs appear escaped inside raw feed XML.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

type Rewriter struct {
	baseURL     string
	tagsToStrip map[string]bool
}

func NewRewriter(baseURL string, tagsToStrip []string) *Rewriter {
	tags := make(map[string]bool, len(tagsToStrip))
	for _, tag := range tagsToStrip {
		tags[strings.TrimSpace(tag)] = true
	}

	return &Rewriter{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		tagsToStrip: tags,
	}
}

// CanonicalURL is where the archived copy of an episode is served from.
func (r *Rewriter) CanonicalURL(slug, guid string) string {
	return fmt.Sprintf("%s/%s/%s.mp3", r.baseURL, slug, SanitizeFilename(guid))
}

// Run points every audio enclosure of the raw feed at its archived copy,
// strips the configured tags and returns the document indented. An entry
// without a guid aborts the rewrite.
func (r *Rewriter) Run(slug, raw string, feed *Feed) (string, error) {
	replacements := make(map[string]string)
	for _, entry := range feed.Entries {
		if entry.GUID == "" {
			return "", ErrMissingGUID
		}
		canonical := r.CanonicalURL(slug, entry.GUID)
		for _, link := range entry.AudioLinks {
			replacements[htmlEscaper.Replace(link)] = canonical
		}
	}

	return r.prettyPrint(relink(raw, replacements))
}

// relink applies all replacements in one pass over raw, so text produced by
// one replacement is never matched by another. Longer keys win when keys
// overlap at the same position.
func relink(raw string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return raw
	}

	keys := make([]string, 0, len(replacements))
	for key := range replacements {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})

	oldnew := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		oldnew = append(oldnew, key, replacements[key])
	}

	return strings.NewReplacer(oldnew...).Replace(raw)
}

func (r *Rewriter) prettyPrint(raw string) (string, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader

	if err := doc.ReadFromString(raw); err != nil {
		return "", fmt.Errorf("failed to parse relinked feed: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("relinked feed has no root element")
	}

	// The output is always UTF-8, whatever the source declared.
	var declarations []etree.Token
	for _, token := range doc.Child {
		if procInst, ok := token.(*etree.ProcInst); ok && procInst.Target == "xml" {
			declarations = append(declarations, procInst)
		}
	}
	for _, declaration := range declarations {
		doc.RemoveChild(declaration)
	}

	r.strip(root)
	doc.Indent(2)

	body, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize feed: %w", err)
	}

	return xmlDeclaration + "\n" + strings.TrimLeft(body, "\r\n\t "), nil
}

func (r *Rewriter) strip(element *etree.Element) {
	for _, child := range element.ChildElements() {
		if r.tagsToStrip[child.FullTag()] {
			element.RemoveChild(child)
			continue
		}
		r.strip(child)
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	encoding, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if encoding == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return encoding.NewDecoder().Reader(input), nil
}
