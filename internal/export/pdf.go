// Package export renders a finished or in-progress run as a PDF chronicle.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/models"
)

const (
	pageMargin = 40.0
	bodySize   = 11.0
	lineHeight = 15.0
	fontFamily = "chronicle"
)

// ErrFontRequired is returned when the run holds text the core font cannot
// draw and no FontPath was given.
var ErrFontRequired = errors.New("run text needs a Unicode font")

// Characters above Latin-1 that the cp1252 translator still maps.
const cp1252Extras = "\u20ac\u201a\u0192\u201e\u2026\u2020\u2021\u02c6\u2030\u0160\u2039\u0152\u017d" +
	"\u2018\u2019\u201c\u201d\u2022\u2013\u2014\u02dc\u2122\u0161\u203a\u0153\u017e\u0178"

// Options controls rendering.
type Options struct {
	// FontPath is a TTF with the glyphs the narration needs. Without one the
	// core Helvetica font is used, which only covers Latin-1.
	FontPath string
	Title    string
	Now      time.Time
}

// WritePDF writes the chronicle of st to w.
func WritePDF(w io.Writer, st models.RunState, opts Options) error {
	title := opts.Title
	if title == "" {
		title = "Survival Run Chronicle"
	}
	if opts.FontPath == "" && !coreFontCovers(title, st) {
		return fmt.Errorf("%w: set PDF_FONT_PATH to a TTF font with the narration's glyphs", ErrFontRequired)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		if _, err := os.Stat(opts.FontPath); err != nil {
			return fmt.Errorf("pdf font: %w", err)
		}
		pdf.AddUTF8Font(fontFamily, "", opts.FontPath)
		pdf.AddUTF8Font(fontFamily, "B", opts.FontPath)
		family = fontFamily
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont(family, "B", 20)
	pdf.CellFormat(0, 26, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont(family, "", 9)
	meta := []string{"run " + st.RunID}
	if st.Genre.SelectedID != "" {
		meta = append(meta, "genre "+st.Genre.SelectedID)
	}
	if !opts.Now.IsZero() {
		meta = append(meta, opts.Now.Format("2006-01-02 15:04"))
	}
	pdf.CellFormat(0, 12, tr(strings.Join(meta, " | ")), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	section := func(name string) {
		pdf.Ln(6)
		pdf.SetFont(family, "B", 13)
		pdf.CellFormat(0, 18, tr(name), "B", 1, "L", false, 0, "")
		pdf.Ln(4)
		pdf.SetFont(family, "", bodySize)
	}
	para := func(text string) {
		pdf.MultiCell(0, lineHeight, tr(text), "", "L", false)
	}

	section("Outcome")
	para(outcome(st))
	para(fmt.Sprintf("HP %d   ATK %d   MP %d   turns %d/%d",
		st.Stats.HP, game.AdjustedATK(st), st.Stats.MP, st.TurnCount, st.MaxTurns))
	para("Weapon: " + itemName(st.Equipped.Weapon) + "   Armor: " + itemName(st.Equipped.Armor))

	section("Inventory")
	if len(st.Inventory) == 0 {
		para("(empty)")
	}
	for _, it := range st.Inventory {
		para(fmt.Sprintf("- %s x%d [%s]", it.Name, it.Quantity, it.Type))
	}

	if len(st.Achievements) > 0 {
		section("Achievements")
		for _, a := range st.Achievements {
			para("- " + a)
		}
	}

	if typ := imageType(st.SceneImage); typ != "" {
		section("Last scene")
		opt := gofpdf.ImageOptions{ImageType: typ}
		pdf.RegisterImageOptionsReader("scene", opt, bytes.NewReader(st.SceneImage))
		width := 515.0
		pdf.ImageOptions("scene", pdf.GetX(), pdf.GetY(), width, 0, true, opt, 0, "")
	}

	if st.NarrativeText != "" {
		section("Last scene text")
		para(st.NarrativeText)
	}
	if st.Ending != "" {
		section("Ending")
		para(st.Ending)
	}
	if len(st.HUDNotes) > 0 {
		section("Log")
		pdf.SetFont(family, "", 9)
		for _, n := range st.HUDNotes {
			para(n)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// WriteFile renders the chronicle to path.
func WriteFile(path string, st models.RunState, opts Options) error {
	var buf bytes.Buffer
	if err := WritePDF(&buf, st, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// coreFontCovers reports whether every string the chronicle prints can be
// drawn with Helvetica through the cp1252 translator.
func coreFontCovers(title string, st models.RunState) bool {
	texts := []string{title, st.RunID, st.Genre.SelectedID, st.NarrativeText, st.Ending,
		itemName(st.Equipped.Weapon), itemName(st.Equipped.Armor)}
	texts = append(texts, st.Achievements...)
	texts = append(texts, st.HUDNotes...)
	for _, it := range st.Inventory {
		texts = append(texts, it.Name)
	}
	for _, t := range texts {
		for _, r := range t {
			if r > 0xff && !strings.ContainsRune(cp1252Extras, r) {
				return false
			}
		}
	}
	return true
}

func outcome(st models.RunState) string {
	switch {
	case st.IsDead:
		return "Fell during the run."
	case st.IsRunComplete:
		return "Survived to the end."
	default:
		return "Still in progress."
	}
}

func itemName(it *models.Item) string {
	if it == nil {
		return "none"
	}
	return it.Name
}

// imageType sniffs the formats gofpdf can embed.
func imageType(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case bytes.HasPrefix(b, []byte{0xff, 0xd8, 0xff}):
		return "JPG"
	case bytes.HasPrefix(b, []byte("GIF8")):
		return "GIF"
	}
	return ""
}
