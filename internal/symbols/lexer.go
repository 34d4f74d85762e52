package symbols

import (
	"regexp"
	"strings"
)

var (
	namespacePattern   = regexp.MustCompile(`^namespace\s+([A-Za-z_][A-Za-z0-9_\\]*)\s*[;{]`)
	declarationPattern = regexp.MustCompile(`^(class|interface|trait|enum)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// reservedAfterClass are words that follow "class" in anonymous class
// expressions and must not be read as a type name.
var reservedAfterClass = map[string]bool{
	"extends":    true,
	"implements": true,
}

// scanDeclarations finds class-like declarations with a lexical pass over
// PHP source. Comments and string literals are blanked first so keywords
// inside them are not matched.
func scanDeclarations(path string, source []byte) []Declaration {
	code := blankCommentsAndStrings(source)

	var (
		decls     []Declaration
		namespace string
	)
	for i := 0; i < len(code); i++ {
		if !wordStart(code, i) {
			continue
		}
		rest := code[i:]
		switch {
		case strings.HasPrefix(rest, "namespace"):
			if m := namespacePattern.FindStringSubmatch(rest); m != nil {
				namespace = strings.Trim(m[1], `\`)
				i += len(m[0]) - 1
			}
		case strings.HasPrefix(rest, "class"), strings.HasPrefix(rest, "interface"),
			strings.HasPrefix(rest, "trait"), strings.HasPrefix(rest, "enum"):
			m := declarationPattern.FindStringSubmatch(rest)
			if m == nil || reservedAfterClass[m[2]] || previousWord(code, i) == "new" {
				continue
			}
			decls = append(decls, Declaration{
				Name:      m[2],
				Namespace: namespace,
				Kind:      m[1],
				Path:      path,
				Line:      strings.Count(code[:i], "\n") + 1,
				Source:    "lexer",
			})
			i += len(m[0]) - 1
		}
	}
	return decls
}

// wordStart reports whether a keyword may begin at i. Member access
// (Foo::class, $obj->class) and variables ($class) are excluded.
func wordStart(code string, i int) bool {
	if i == 0 {
		return true
	}
	prev := code[i-1]
	if isIdentByte(prev) || prev == '$' || prev == '\\' {
		return false
	}
	if prev == ':' || prev == '>' {
		return i < 2 || (code[i-2] != ':' && code[i-2] != '-')
	}
	return true
}

func previousWord(code string, i int) string {
	j := i - 1
	for j >= 0 && (code[j] == ' ' || code[j] == '\t' || code[j] == '\n' || code[j] == '\r') {
		j--
	}
	end := j + 1
	for j >= 0 && isIdentByte(code[j]) {
		j--
	}
	return strings.ToLower(code[j+1 : end])
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b >= 0x80
}

// blankCommentsAndStrings replaces comments and quoted strings with spaces,
// keeping newlines so line numbers survive. Text outside <?php tags is
// blanked too.
func blankCommentsAndStrings(source []byte) string {
	out := []byte(string(source))
	blank := func(from, to int) {
		for k := from; k < to && k < len(out); k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}

	inPHP := false
	i := 0
	for i < len(out) {
		if !inPHP {
			j := strings.Index(string(out[i:]), "<?php")
			if j < 0 {
				blank(i, len(out))
				break
			}
			blank(i, i+j+5)
			i += j + 5
			inPHP = true
			continue
		}

		c := out[i]
		switch {
		case c == '?' && i+1 < len(out) && out[i+1] == '>':
			inPHP = false
			blank(i, i+2)
			i += 2
		case c == '#' && !(i+1 < len(out) && out[i+1] == '['), c == '/' && i+1 < len(out) && out[i+1] == '/':
			end := i
			for end < len(out) && out[end] != '\n' {
				end++
			}
			blank(i, end)
			i = end
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			end := strings.Index(string(out[i+2:]), "*/")
			if end < 0 {
				blank(i, len(out))
				i = len(out)
				break
			}
			blank(i, i+2+end+2)
			i += 2 + end + 2
		case c == '\'' || c == '"':
			end := i + 1
			for end < len(out) && out[end] != c {
				if out[end] == '\\' {
					end++
				}
				end++
			}
			blank(i, end+1)
			i = end + 1
		default:
			i++
		}
	}
	return string(out)
}
