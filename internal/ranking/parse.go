package ranking

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrUnparseable is returned when the oracle's answer holds no id list.
var ErrUnparseable = errors.New("ranking response holds no id list")

var (
	fenceMarkers = strings.NewReplacer("```json", "", "```", "")
	bracketed    = regexp.MustCompile(`(?s)\[(.*?)\]`)
)

// tokenCutset is stripped from both ends of each loosely parsed id.
const tokenCutset = " \"'\t\n\r"

// ParseRanking extracts an ordered id list from an oracle answer.
//
// Code fences are removed and the text is parsed as a JSON array; numbers
// become their decimal text, strings are trimmed and other elements are
// dropped. Well-formed JSON that is not an array carries no ranking and
// yields ErrUnparseable. Only text that is not JSON at all is scanned: the
// first bracketed group is split on commas and each token is stripped of
// whitespace and quotes, dropping empty tokens. ErrUnparseable is returned
// when no group is present.
func ParseRanking(text string) ([]string, error) {
	cleaned := strings.TrimSpace(fenceMarkers.Replace(text))

	if json.Valid([]byte(cleaned)) {
		ids, ok := parseJSONArray(cleaned)
		if !ok {
			return nil, ErrUnparseable
		}
		return ids, nil
	}

	m := bracketed.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, ErrUnparseable
	}
	ids := []string{}
	for _, tok := range strings.Split(m[1], ",") {
		if tok = strings.Trim(tok, tokenCutset); tok != "" {
			ids = append(ids, tok)
		}
	}
	return ids, nil
}

// parseJSONArray converts a valid JSON document into ids. It reports false
// when the document is not an array.
func parseJSONArray(text string) ([]string, bool) {
	if !strings.HasPrefix(text, "[") {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elems); err != nil {
		return nil, false
	}

	ids := make([]string, 0, len(elems))
	for _, raw := range elems {
		if id, ok := elementID(raw); ok {
			ids = append(ids, id)
		}
	}
	return ids, true
}

// elementID converts a JSON array element into an id.
func elementID(raw json.RawMessage) (string, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "", false
	}
	switch c := s[0]; {
	case c == '"':
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return "", false
		}
		str = strings.TrimSpace(str)
		return str, str != ""
	case c == '-' || (c >= '0' && c <= '9'):
		n := json.Number(s)
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return strconv.FormatInt(int64(f), 10), true
		}
		return s, true
	}
	return "", false
}
