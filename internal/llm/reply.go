package llm

import (
	"encoding/json"
	"strings"
)

type ReplyKind int

const (
	ReplyOK ReplyKind = iota
	ReplyEmpty
	ReplyMalformedJSON
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyOK:
		return "ok"
	case ReplyEmpty:
		return "empty"
	default:
		return "malformed_json"
	}
}

// Reply is the decoded form of an untrusted model answer.
type Reply struct {
	Kind ReplyKind
	Raw  string
	Err  error
}

// StripFences removes markdown code fences and surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// CleanText strips fences and one pair of wrapping quotes from a plain text
// answer.
func CleanText(s string) string {
	s = StripFences(s)
	for _, q := range []string{`"`, "'", "“"} {
		end := q
		if q == "“" {
			end = "”"
		}
		if len(s) >= len(q)+len(end) && strings.HasPrefix(s, q) && strings.HasSuffix(s, end) {
			s = strings.TrimSpace(s[len(q) : len(s)-len(end)])
			break
		}
	}
	return s
}

// DecodeObject extracts the outermost JSON object from raw and decodes it
// into dst. dst is only meaningful when the returned Kind is ReplyOK.
func DecodeObject(raw string, dst any) Reply {
	text := StripFences(raw)
	if text == "" {
		return Reply{Kind: ReplyEmpty, Raw: raw}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Reply{Kind: ReplyMalformedJSON, Raw: raw}
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), dst); err != nil {
		return Reply{Kind: ReplyMalformedJSON, Raw: raw, Err: err}
	}
	return Reply{Kind: ReplyOK, Raw: raw}
}
