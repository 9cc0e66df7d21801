package preprocess

import (
	"fmt"
	"regexp"
)

// Block is a depth-balanced {{ ... }} span of a source document. Start is
// the offset the scan began at, which may precede the opening delimiter
// (for example the identifier introducing the block), and End is the offset
// just past the closing delimiter.
type Block struct {
	Start, End int
}

// Text returns the full matched region, identifier prefix included.
func (b Block) Text(src string) string {
	return src[b.Start:b.End]
}

var blockPrefixRe = regexp.MustCompile(`(?s)^.*?\{\{`)

// Contents returns the inner text of the block: everything after the first
// opening delimiter and before the trailing closing delimiter.
func (b Block) Contents(src string) string {
	inner := blockPrefixRe.ReplaceAllString(b.Text(src), "")
	if len(inner) < 2 {
		return ""
	}
	return inner[:len(inner)-2]
}

// ReadBlock scans src from start for the smallest well-nested {{ ... }}
// span. Every brace adjusts a depth counter; the block counts as started
// once the depth reaches two, since entering the block stacks its own
// opening delimiter on the matched prefix, and it ends when the depth
// returns to zero. Block content may itself contain nested {{ }} macro
// text, which is why a depth counter is required instead of a regular
// expression.
func ReadBlock(start int, src string) (Block, error) {
	started := false
	depth := 0
	i := start
	for i < len(src) && (depth > 0 || !started) {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 2 {
			started = true
		}
		i++
	}
	if depth != 0 || !started {
		return Block{}, &UnterminatedBlockError{Offset: start}
	}
	return Block{Start: start, End: i}, nil
}

// ReadIdentifierBlock locates the first occurrence of identifier followed
// (whitespace allowed) by an opening delimiter, and reads its block. When
// no such occurrence exists the error wraps ErrMissingIdentifier, which
// callers treat as "feature not present".
func ReadIdentifierBlock(identifier, src string) (Block, error) {
	re, err := regexp.Compile(regexp.QuoteMeta(identifier) + `\s*\{\{`)
	if err != nil {
		return Block{}, err
	}
	loc := re.FindStringIndex(src)
	if loc == nil {
		return Block{}, fmt.Errorf("%w: %s", ErrMissingIdentifier, identifier)
	}
	return ReadBlock(loc[0], src)
}
