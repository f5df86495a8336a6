package storage

// Match reports whether key matches a glob pattern with the KEYS syntax:
// '*' any sequence, '?' one byte, '[abc]' a class with ranges 'a-z' and negation '[^a]',
// and '\' escaping the next byte. Matching is byte-wise
func Match(pattern, key string) bool {
	return match(pattern, key, 0)
}

const maxMatchDepth = 1000

func match(p, s string, depth int) bool {
	if depth > maxMatchDepth {
		return false
	}

	for len(p) > 0 {
		switch p[0] {
		case '*':
			// collapse runs of stars
			for len(p) > 1 && p[1] == '*' {
				p = p[1:]
			}
			if len(p) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if match(p[1:], s[i:], depth+1) {
					return true
				}
			}
			return false

		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			p = p[1:]

		case '[':
			if len(s) == 0 {
				return false
			}
			rest, ok := matchClass(p[1:], s[0])
			if !ok {
				return false
			}
			p = rest
			s = s[1:]

		case '\\':
			if len(p) >= 2 {
				p = p[1:]
			}
			fallthrough

		default:
			if len(s) == 0 || p[0] != s[0] {
				return false
			}
			s = s[1:]
			p = p[1:]
		}
	}

	return len(s) == 0
}

// matchClass matches c against the class body p (after '[') and returns the pattern after ']'
func matchClass(p string, c byte) (string, bool) {
	negate := false
	if len(p) > 0 && p[0] == '^' {
		negate = true
		p = p[1:]
	}

	matched := false
	for len(p) > 0 && p[0] != ']' {
		switch {
		case p[0] == '\\' && len(p) >= 2:
			if p[1] == c {
				matched = true
			}
			p = p[2:]

		case len(p) >= 3 && p[1] == '-' && p[2] != ']':
			lo, hi := p[0], p[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			p = p[3:]

		default:
			if p[0] == c {
				matched = true
			}
			p = p[1:]
		}
	}

	// an unterminated class runs to the end of the pattern
	if len(p) > 0 {
		p = p[1:]
	}

	return p, matched != negate
}
