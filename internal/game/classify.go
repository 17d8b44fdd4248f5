package game

import (
	"strings"
	"unicode"

	"github.com/tatianab/survival-run/internal/models"
)

// Rules are checked in order; the first keyword hit wins. Hangul keywords match
// as substrings. Latin keywords must match a whole word, optionally plural, so
// "turkey" is not a key and "elbow" is not a bow.
var classifyRules = []struct {
	typ      models.ItemType
	keywords []string
}{
	{models.ItemWeapon, []string{"검", "도끼", "활", "지팡이", "sword", "axe", "bow", "dagger", "knife", "spear"}},
	{models.ItemFood, []string{"빵", "고기", "약초", "사과", "bread", "meat", "herb", "apple", "ration"}},
	{models.ItemArmor, []string{"갑옷", "방패", "투구", "갑주", "armor", "armour", "shield", "helmet"}},
	{models.ItemPotion, []string{"포션", "물약", "회복제", "potion", "elixir", "tonic"}},
	{models.ItemKey, []string{"열쇠", "key"}},
	{models.ItemBook, []string{"책", "스크롤", "두루마리", "book", "scroll", "tome"}},
}

// ClassifyItem derives an item type from its name. It never fails.
func ClassifyItem(name string) models.ItemType {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return models.ItemMisc
	}
	words := strings.FieldsFunc(n, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	for _, r := range classifyRules {
		for _, kw := range r.keywords {
			if isLatin(kw) {
				if hasWord(words, kw) {
					return r.typ
				}
				continue
			}
			if strings.Contains(n, kw) {
				return r.typ
			}
		}
	}
	return models.ItemMisc
}

func isLatin(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func hasWord(words []string, kw string) bool {
	for _, w := range words {
		if w == kw || w == kw+"s" || w == kw+"es" {
			return true
		}
	}
	return false
}
