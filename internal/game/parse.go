package game

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tatianab/survival-run/internal/models"
)

// maxDelta bounds a single stat delta so absurd model output cannot overflow.
const maxDelta = 1_000_000

// EmptyPayload is the all-defaults payload returned for unusable model output.
func EmptyPayload() models.TurnPayload {
	return models.TurnPayload{Highlights: map[string][]string{}}
}

// ExtractJSON returns the text between the first '{' and the last '}'.
func ExtractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseTurnPayload decodes model output into a defaulted payload. It never
// panics; ok is false when no JSON object could be decoded, in which case the
// all-defaults payload is returned.
func ParseTurnPayload(raw string) (payload models.TurnPayload, ok bool) {
	candidate, found := ExtractJSON(raw)
	if !found || !gjson.Valid(candidate) {
		return EmptyPayload(), false
	}
	root := gjson.Parse(candidate)
	if !root.IsObject() {
		return EmptyPayload(), false
	}

	p := EmptyPayload()
	p.Story = str(root, "story")
	p.Subject = parseSubject(root.Get("subject"))
	p.StatDeltas = parseDeltas(root.Get("deltas"))
	p.ItemsAdded = strList(root.Get("itemsAdd"))
	p.ItemsRemoved = strList(root.Get("itemsRemove"))
	p.RecommendedAction = str(root, "recommendedAction")
	p.BGMMood = strings.ToLower(str(root, "bgm"))

	if h := root.Get("highlights"); h.IsObject() {
		h.ForEach(func(key, value gjson.Result) bool {
			if words := strList(value); len(words) > 0 {
				p.Highlights[key.String()] = words
			}
			return true
		})
	}
	return p, true
}

// str reads a string field, treating any other JSON type as empty.
func str(obj gjson.Result, key string) string {
	v := obj.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

func strList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, el := range v.Array() {
		if el.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(el.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseSubject(v gjson.Result) *models.Subject {
	if !v.IsObject() {
		return nil
	}
	label := str(v, "primaryLabel")
	if label == "" {
		label = str(v, "ko")
	}
	hint := str(v, "renderHint")
	if hint == "" {
		hint = str(v, "en")
	}
	if label == "" && hint == "" {
		return nil
	}
	return &models.Subject{PrimaryLabel: label, RenderHint: hint}
}

func parseDeltas(v gjson.Result) []models.StatDelta {
	if !v.IsArray() {
		return nil
	}
	var out []models.StatDelta
	for _, d := range v.Array() {
		if !d.IsObject() {
			continue
		}
		stat, ok := parseStat(str(d, "stat"))
		if !ok {
			continue
		}
		amount, ok := parseAmount(d.Get("delta"))
		if !ok {
			amount, ok = parseAmount(d.Get("amount"))
		}
		if !ok {
			continue
		}
		out = append(out, models.StatDelta{Stat: stat, Amount: amount, Reason: str(d, "reason")})
	}
	return out
}

func parseStat(s string) (models.StatKey, bool) {
	switch models.StatKey(strings.ToLower(s)) {
	case models.StatHP:
		return models.StatHP, true
	case models.StatATK:
		return models.StatATK, true
	case models.StatMP:
		return models.StatMP, true
	}
	return "", false
}

func parseAmount(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		f := v.Num
		if math.IsNaN(f) {
			return 0, false
		}
		return int(math.Max(-maxDelta, math.Min(maxDelta, math.Trunc(f)))), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, false
		}
		return max(-maxDelta, min(maxDelta, n)), true
	}
	return 0, false
}
