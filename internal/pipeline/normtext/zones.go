package normtext

// StripZones removes fenced code blocks, inline code spans, and quoted
// lines (lines starting with '>') from normalized text before it is handed
// to the text clusterer's tokenizer. Entity alias matching runs on the
// un-stripped text, since code identifiers can legitimately be entity
// mentions; only clustering input needs this hygiene pass
func StripZones(s string) string {
	if s == "" {
		return s
	}
	s = stripFences(s)
	s = stripInlineCode(s)
	return stripQuotedLines(s)
}

func stripFences(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if i+2 < len(s) && s[i] == '`' && s[i+1] == '`' && s[i+2] == '`' {
			close := indexTripleBacktick(s, i+3)
			if close < 0 {
				break
			}
			i = close + 3
			continue
		}
		out = append(out, s[i])
		i++
	}
	return string(out)
}

func indexTripleBacktick(s string, from int) int {
	for i := from; i+2 < len(s); i++ {
		if s[i] == '`' && s[i+1] == '`' && s[i+2] == '`' {
			return i
		}
	}
	return -1
}

func stripInlineCode(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '`' {
			out = append(out, s[i])
			continue
		}
		j := i + 1
		for j < len(s) && s[j] != '`' {
			j++
		}
		if j >= len(s) {
			out = append(out, s[i])
			continue
		}
		i = j
	}
	return string(out)
}

func stripQuotedLines(s string) string {
	lines := splitLines(s)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := line
		k := 0
		for k < len(trimmed) && (trimmed[k] == ' ' || trimmed[k] == '\t') {
			k++
		}
		if k < len(trimmed) && trimmed[k] == '>' {
			continue
		}
		out = append(out, line)
	}
	return joinLines(out)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
