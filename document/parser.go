package document

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterDelimiter opens and closes the YAML metadata block.
const frontmatterDelimiter = "---"

// minFenceLength is the minimum delimiter repetition for a code fence.
const minFenceLength = 3

// Parse turns raw document text into a Document. It is total: any text
// parses without error. Malformed fences and unparseable frontmatter
// degrade to prose, and an unclosed fence extends to end of document.
func Parse(path, raw string) *Document {
	doc := &Document{Path: path, Source: raw}

	rest := raw
	offset := 0
	if fm := parseFrontmatter(raw); fm != nil {
		doc.Frontmatter = fm
		offset = fm.Span.End
		rest = raw[offset:]
	}

	doc.Segments = parseSegments(rest, offset)
	return doc
}

// parseFrontmatter recognizes a metadata block only when the document
// begins with the delimiter at offset 0. Returns nil when there is no
// well-formed block, leaving the text to be parsed as prose.
func parseFrontmatter(raw string) *Frontmatter {
	first, firstLen := nextLine(raw, 0)
	if strings.TrimRight(first, "\r\n") != frontmatterDelimiter {
		return nil
	}

	pos := firstLen
	for pos < len(raw) {
		line, n := nextLine(raw, pos)
		if strings.TrimRight(line, "\r\n") == frontmatterDelimiter {
			end := pos + n
			body := raw[firstLen:pos]

			var fm Frontmatter
			if err := yaml.Unmarshal([]byte(body), &fm); err != nil {
				return nil
			}
			var fields map[string]any
			if err := yaml.Unmarshal([]byte(body), &fields); err == nil {
				fm.Fields = fields
			}
			fm.Raw = raw[:end]
			fm.Span = Span{Start: 0, End: end}
			return &fm
		}
		pos += n
	}

	// No closing delimiter: not frontmatter.
	return nil
}

// parseSegments scans text for fenced code blocks. base is the byte
// offset of text within the owning document, so recorded spans are
// document-absolute.
func parseSegments(text string, base int) []Segment {
	var segs []Segment
	proseStart := 0
	pos := 0

	flushProse := func(end int) {
		if end > proseStart {
			segs = append(segs, &Prose{
				Text: text[proseStart:end],
				Span: Span{Start: base + proseStart, End: base + end},
			})
		}
	}

	for pos < len(text) {
		line, n := nextLine(text, pos)
		fence, ok := parseFenceOpening(line)
		if !ok {
			pos += n
			continue
		}

		flushProse(pos)
		blockStart := pos
		contentStart := pos + n

		// Scan for a closing fence of at least the opening length.
		contentEnd := len(text)
		blockEnd := len(text)
		trailer := ""
		scan := contentStart
		for scan < len(text) {
			cl, cn := nextLine(text, scan)
			if isFenceClosing(cl, fence.style) {
				contentEnd = scan
				blockEnd = scan + cn
				trailer = text[scan:blockEnd]
				break
			}
			scan += cn
		}

		segs = append(segs, &CodeBlock{
			Language:    fence.language,
			Attrs:       fence.attrs,
			Fence:       fence.style,
			Span:        Span{Start: base + blockStart, End: base + blockEnd},
			ContentSpan: Span{Start: base + contentStart, End: base + contentEnd},
			Content:     text[contentStart:contentEnd],
			header:      text[blockStart:contentStart],
			trailer:     trailer,
		})

		pos = blockEnd
		proseStart = blockEnd
	}

	flushProse(len(text))
	return segs
}

// fenceOpening is the parsed header of an opening fence line.
type fenceOpening struct {
	style    FenceStyle
	language string
	attrs    Attributes
}

// parseFenceOpening recognizes a fence opening at start of line: three
// or more backticks or tildes followed by an optional info string.
func parseFenceOpening(line string) (fenceOpening, bool) {
	trimmed := strings.TrimRight(line, "\r\n")
	if len(trimmed) < minFenceLength {
		return fenceOpening{}, false
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return fenceOpening{}, false
	}
	length := 0
	for length < len(trimmed) && trimmed[length] == ch {
		length++
	}
	if length < minFenceLength {
		return fenceOpening{}, false
	}
	info := strings.TrimSpace(trimmed[length:])
	// An info string containing the fence character is not a valid
	// opening (it would be ambiguous with a longer closing fence).
	if strings.ContainsRune(info, rune(ch)) {
		return fenceOpening{}, false
	}

	lang, attrs := parseInfoString(info)
	return fenceOpening{
		style:    FenceStyle{Char: ch, Length: length},
		language: lang,
		attrs:    attrs,
	}, true
}

// isFenceClosing reports whether the line closes a block opened with the
// given style: the same character repeated at least as many times, at
// start of line, with nothing but whitespace after.
func isFenceClosing(line string, style FenceStyle) bool {
	trimmed := strings.TrimRight(line, " \t\r\n")
	if len(trimmed) < style.Length {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != style.Char {
			return false
		}
	}
	return true
}

// parseInfoString parses the fence header into a language tag and
// attributes. Two forms are recognized:
//
//	python                        bare language word
//	{.python .tangle location=x}  pandoc-style attribute braces
//
// In the braced form the first class that is not a known marker class
// is the language.
func parseInfoString(info string) (string, Attributes) {
	attrs := Attributes{Keys: map[string]string{}}
	if info == "" {
		return "", attrs
	}

	if strings.HasPrefix(info, "{") && strings.HasSuffix(info, "}") {
		lang := ""
		for _, tok := range strings.Fields(info[1 : len(info)-1]) {
			switch {
			case strings.HasPrefix(tok, "."):
				class := tok[1:]
				attrs.Classes = append(attrs.Classes, class)
				if lang == "" && class != ClassTangle && class != ClassCBCode {
					lang = class
				}
			case strings.Contains(tok, "="):
				k, v, _ := strings.Cut(tok, "=")
				attrs.Keys[k] = strings.Trim(v, `"`)
			default:
				attrs.Classes = append(attrs.Classes, tok)
				if lang == "" {
					lang = tok
				}
			}
		}
		return lang, attrs
	}

	fields := strings.Fields(info)
	lang := fields[0]
	for _, tok := range fields[1:] {
		if strings.Contains(tok, "=") {
			k, v, _ := strings.Cut(tok, "=")
			attrs.Keys[k] = strings.Trim(v, `"`)
		} else {
			attrs.Classes = append(attrs.Classes, tok)
		}
	}
	return lang, attrs
}

// nextLine returns the line starting at pos including its terminator,
// and the number of bytes consumed.
func nextLine(s string, pos int) (string, int) {
	if pos >= len(s) {
		return "", 0
	}
	if i := strings.IndexByte(s[pos:], '\n'); i >= 0 {
		return s[pos : pos+i+1], i + 1
	}
	return s[pos:], len(s) - pos
}
