package collect

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/width"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/config"
	"github.com/sells-group/storefront-cli/internal/model"
)

var (
	// Ordered by specificity: dashed landline, mobile prefix, bare digit run.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{2,3}-\d{3,4}-\d{4}`),
		regexp.MustCompile(`01[016789]-?\d{3,4}-?\d{4}`),
		regexp.MustCompile(`\d{10,11}`),
	}
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	digitPattern = regexp.MustCompile(`\d`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// InfoExtractor turns a revealed page into a partial {phone, email} result
// through an ordered fallback chain: structured label/value pairs, free-text
// colon-split lines, then whole-page regex. Each stage only fills fields the
// earlier stages left missing; the extractor never invents values.
type InfoExtractor struct {
	session   browser.Session
	selectors config.SelectorConfig
}

// NewInfoExtractor creates an extractor for the given session.
func NewInfoExtractor(session browser.Session, selectors config.SelectorConfig) *InfoExtractor {
	return &InfoExtractor{session: session, selectors: selectors}
}

// Extract runs the fallback chain against the focused page. Applied only
// after a successful challenge resolution or no challenge at all.
func (e *InfoExtractor) Extract(ctx context.Context) model.ExtractionResult {
	html, err := e.session.HTML(ctx)
	if err != nil {
		zap.L().Warn("extract: page snapshot failed", zap.Error(err))
		return model.ExtractionResult{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		zap.L().Warn("extract: parse html failed", zap.Error(err))
		return model.ExtractionResult{}
	}

	result := e.extractStructured(doc)

	// Whole-page regex is a last resort, attempted only when the structured
	// strategies found nothing at all.
	if result.Empty() {
		text, err := e.session.Text(ctx)
		if err != nil || strings.TrimSpace(text) == "" {
			text = doc.Text()
		}
		result = e.extractFromText(text)
	}

	return result
}

// extractStructured runs the container strategies: positional label/value
// pairing when counts line up, colon-split line parsing otherwise.
func (e *InfoExtractor) extractStructured(doc *goquery.Document) model.ExtractionResult {
	var result model.ExtractionResult

	for _, containerSel := range e.selectors.InfoContainers {
		doc.Find(containerSel).EachWithBreak(func(_ int, container *goquery.Selection) bool {
			labels := e.firstNonEmpty(container, e.selectors.LabelSelectors)
			values := e.firstNonEmpty(container, e.selectors.ValueSelectors)

			if labels != nil && values != nil && labels.Length() == values.Length() {
				result = result.Merge(e.pairByPosition(labels, values))
			} else {
				result = result.Merge(e.parseLines(container.Text()))
			}
			return !result.Complete()
		})
		if result.Complete() {
			break
		}
	}
	return result
}

// firstNonEmpty tries the ordered selector list and returns the first
// selection with any matches, or nil when every selector misses.
func (e *InfoExtractor) firstNonEmpty(container *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := container.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// pairByPosition classifies positional label/value pairs by keyword.
func (e *InfoExtractor) pairByPosition(labels, values *goquery.Selection) model.ExtractionResult {
	var result model.ExtractionResult
	labels.EachWithBreak(func(i int, label *goquery.Selection) bool {
		value := values.Eq(i)
		result = result.Merge(e.classify(label.Text(), value.Text()))
		return !result.Complete()
	})
	return result
}

// parseLines splits container text into lines and each line on its first
// colon, then applies the same keyword classification.
func (e *InfoExtractor) parseLines(text string) model.ExtractionResult {
	var result model.ExtractionResult
	for _, line := range strings.Split(text, "\n") {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		result = result.Merge(e.classify(label, value))
		if result.Complete() {
			break
		}
	}
	return result
}

// classify assigns a value to phone or email based on the label's keyword
// membership: token match for phone, case-insensitive match for email.
func (e *InfoExtractor) classify(label, value string) model.ExtractionResult {
	label = width.Narrow.String(strings.TrimSpace(label))
	value = strings.TrimSpace(value)
	if label == "" || value == "" {
		return model.ExtractionResult{}
	}

	for _, kw := range e.selectors.PhoneKeywords {
		if strings.Contains(label, kw) {
			if phone := e.normalizePhone(value); phone != "" {
				return model.ExtractionResult{Phone: phone}
			}
			return model.ExtractionResult{}
		}
	}

	lowered := strings.ToLower(label)
	for _, kw := range e.selectors.EmailKeywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			if email := normalizeEmail(value); email != "" {
				return model.ExtractionResult{Email: email}
			}
			return model.ExtractionResult{}
		}
	}
	return model.ExtractionResult{}
}

// extractFromText scans the whole page text with the phone-shaped patterns
// and the email pattern.
func (e *InfoExtractor) extractFromText(text string) model.ExtractionResult {
	var result model.ExtractionResult
	narrowed := width.Narrow.String(text)

	for _, re := range phonePatterns {
		for _, match := range re.FindAllString(narrowed, -1) {
			if len(digitPattern.FindAllString(match, -1)) >= 10 {
				result.Phone = strings.TrimSpace(match)
				break
			}
		}
		if result.Phone != "" {
			break
		}
	}

	if match := emailPattern.FindString(narrowed); match != "" {
		result.Email = match
	}
	return result
}

// normalizePhone narrows full-width characters, strips configured noise
// substrings, and keeps only digits, dashes, parentheses, and single spaces.
func (e *InfoExtractor) normalizePhone(value string) string {
	v := width.Narrow.String(value)
	for _, noise := range e.selectors.PhoneNoise {
		v = strings.ReplaceAll(v, noise, "")
	}

	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '(', r == ')', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(spaceRuns.ReplaceAllString(b.String(), " "))
}

// normalizeEmail accepts a value only when it contains an @.
func normalizeEmail(value string) string {
	v := strings.TrimSpace(width.Narrow.String(value))
	if !strings.Contains(v, "@") {
		return ""
	}
	return v
}
