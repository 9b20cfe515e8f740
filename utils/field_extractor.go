package utils

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// Patterns holds the regular expressions used to pull candidate fields out of OCR text.
// Each pattern must expose the value in capture group 1 unless noted otherwise.
type Patterns struct {
	Name               string `mapstructure:"name"`
	DOB                string `mapstructure:"dob"` // whole match
	Income             string `mapstructure:"income"`
	EmploymentType     string `mapstructure:"employment_type"`
	Aadhaar            string `mapstructure:"aadhaar"` // groups 1-3
	PAN                string `mapstructure:"pan"`     // whole match
	PANStrict          string `mapstructure:"pan_strict"`
	IncomeAmount       string `mapstructure:"income_amount"`
	IncomeAmountMarked string `mapstructure:"income_amount_marked"` // tried before IncomeAmount
}

// DefaultPatterns returns the built-in extraction rules.
func DefaultPatterns() Patterns {
	return Patterns{
		Name:               `(?i)name\s*[:\-]?\s*([A-Za-z \t]+)`,
		DOB:                `\d{2}/\d{2}/\d{4}|\d{2}-\d{2}-\d{4}`,
		Income:             `(?i)(?:income|salary)\s*[:\-]?\s*(\d+(?:,\d+)*)`,
		EmploymentType:     `(?i)(?:employment\s*type|job\s*type)\s*[:\-]?\s*([A-Za-z \t]+)`,
		Aadhaar:            `(?:^|\D)(\d{4})[ \t]*(\d{4})[ \t]*(\d{4})(?:\D|$)`,
		PAN:                `\b[A-Z]{5}[0-9]{4}[A-Z]\b`,
		PANStrict:          `^[A-Z]{5}[0-9]{4}[A-Z]$`,
		IncomeAmount:       `(?i)(?:rs\.?|₹)?\s*(\d+(?:,\d+)*(?:\.\d{2})?)`,
		IncomeAmountMarked: `(?i)(?:\brs\.?|₹)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`,
	}
}

// FieldExtractor turns raw OCR text into typed candidate fields. Every extraction
// returns the first match only; a field that does not match is reported as nil.
type FieldExtractor struct {
	logger   *zap.Logger
	patterns map[string]*regexp.Regexp
}

// NewFieldExtractor compiles the given patterns. A pattern that fails to compile is
// logged and disabled: the field it serves will never match.
func NewFieldExtractor(p Patterns, logger *zap.Logger) *FieldExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	fe := &FieldExtractor{
		logger:   logger,
		patterns: make(map[string]*regexp.Regexp),
	}
	for key, expr := range map[string]string{
		"name":                 p.Name,
		"dob":                  p.DOB,
		"income":               p.Income,
		"employment_type":      p.EmploymentType,
		"aadhaar":              p.Aadhaar,
		"pan":                  p.PAN,
		"pan_strict":           p.PANStrict,
		"income_amount":        p.IncomeAmount,
		"income_amount_marked": p.IncomeAmountMarked,
	} {
		re, err := regexp.Compile(expr)
		if err != nil {
			logger.Warn("invalid extraction pattern, field disabled",
				zap.String("field", key), zap.String("pattern", expr), zap.Error(err))
			continue
		}
		fe.patterns[key] = re
	}
	return fe
}

var defaultExtractor = NewFieldExtractor(DefaultPatterns(), nil)

// ExtractDetails runs every field rule of the default extractor over text.
func ExtractDetails(text string) dto.ExtractedDetails {
	return defaultExtractor.ExtractDetails(text)
}

// IsValidPAN is the strict full-string PAN format check.
func IsValidPAN(pan string) bool {
	return defaultExtractor.IsValidPAN(pan)
}

// FindFirst compiles pattern and returns capture group `group` of its first match in text.
// An invalid pattern behaves like a pattern with no matches.
func FindFirst(pattern, text string, group int) (string, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	return firstSubmatch(re, text, group)
}

func firstSubmatch(re *regexp.Regexp, text string, group int) (string, bool) {
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if len(m) <= group {
		return "", false
	}
	return m[group], true
}

// NormalizeText folds compatibility characters (full-width digits and letters that OCR
// engines emit for some fonts) into their ASCII forms.
func NormalizeText(text string) string {
	return norm.NFKC.String(text)
}

// ExtractDetails runs every field rule over text.
func (fe *FieldExtractor) ExtractDetails(text string) dto.ExtractedDetails {
	return dto.ExtractedDetails{
		Name:           fe.ExtractName(text),
		DOB:            fe.ExtractDOB(text),
		Income:         fe.ExtractIncome(text),
		EmploymentType: fe.ExtractEmploymentType(text),
		AadhaarNumber:  fe.ExtractAadhaarNumber(text),
		PANNumber:      fe.ExtractPANNumber(text),
	}
}

func (fe *FieldExtractor) ExtractName(text string) *string {
	return fe.trimmedGroup("name", text)
}

func (fe *FieldExtractor) ExtractDOB(text string) *string {
	v, ok := firstSubmatch(fe.patterns["dob"], NormalizeText(text), 0)
	if !ok {
		return nil
	}
	return &v
}

// ExtractIncome finds a labelled income/salary figure and strips thousands separators.
func (fe *FieldExtractor) ExtractIncome(text string) *string {
	v, ok := firstSubmatch(fe.patterns["income"], NormalizeText(text), 1)
	if !ok {
		return nil
	}
	v = stripSeparators(v)
	return &v
}

func (fe *FieldExtractor) ExtractEmploymentType(text string) *string {
	return fe.trimmedGroup("employment_type", text)
}

// ExtractAadhaarNumber finds a 12-digit number, optionally written as three
// whitespace-separated groups of four, and returns the digits only.
func (fe *FieldExtractor) ExtractAadhaarNumber(text string) *string {
	re := fe.patterns["aadhaar"]
	if re == nil {
		return nil
	}
	m := re.FindStringSubmatch(NormalizeText(text))
	if len(m) < 4 {
		return nil
	}
	v := m[1] + m[2] + m[3]
	return &v
}

// ExtractPANNumber scans for a PAN-shaped token and accepts it only if it also passes
// the strict format check, so lower-case or garbled tokens are rejected.
func (fe *FieldExtractor) ExtractPANNumber(text string) *string {
	v, ok := firstSubmatch(fe.patterns["pan"], NormalizeText(text), 0)
	if !ok || !fe.IsValidPAN(v) {
		return nil
	}
	return &v
}

// ExtractIncomeProofAmount finds an amount and returns it without thousands separators,
// e.g. "Rs. 1,25,000.50" -> "125000.50". An amount carrying a "Rs."/"₹" marker wins over
// bare numbers such as dates earlier in the text.
func (fe *FieldExtractor) ExtractIncomeProofAmount(text string) *string {
	text = NormalizeText(text)
	v, ok := firstSubmatch(fe.patterns["income_amount_marked"], text, 1)
	if !ok {
		v, ok = firstSubmatch(fe.patterns["income_amount"], text, 1)
	}
	if !ok {
		return nil
	}
	v = stripSeparators(v)
	return &v
}

func (fe *FieldExtractor) IsValidPAN(pan string) bool {
	re := fe.patterns["pan_strict"]
	return re != nil && re.MatchString(pan)
}

func (fe *FieldExtractor) trimmedGroup(key, text string) *string {
	v, ok := firstSubmatch(fe.patterns[key], NormalizeText(text), 1)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
