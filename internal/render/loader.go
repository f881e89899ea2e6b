package render

import (
	"bytes"
	"io"
	"regexp"

	"github.com/flosch/pongo2/v6"
)

// leadingBlockIndent matches the indentation in front of a block tag that
// opens its line.
var leadingBlockIndent = regexp.MustCompile(`(?m)^[ \t]+(\{%)`)

// lstripLoader removes the indentation before block tags that start a line,
// so a tag on its own line leaves no trace in the output. pongo2's own
// LStripBlocks also eats the space before inline tags, which joins XML
// attributes together.
type lstripLoader struct {
	pongo2.TemplateLoader
}

func (l lstripLoader) Get(path string) (io.Reader, error) {
	r, err := l.TemplateLoader.Get(path)
	if err != nil {
		return nil, err
	}

	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(lstripBlocks(src)), nil
}

func lstripBlocks(src []byte) []byte {
	return leadingBlockIndent.ReplaceAll(src, []byte("$1"))
}
