package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Normalizer folds raw User-Agent strings that leak into the browser and
// OS breakdowns onto stable family names. The backend's aggregation is
// naive (it buckets on the first token of the User-Agent header), so labels
// like "Mozilla/5.0 (...)" show up as their own buckets; normalizing them
// keeps the pie charts readable. Labels that already look like family names
// pass through untouched.
type Normalizer struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// NewNormalizer creates a normalizer from a uap-core regexes file.
func NewNormalizer(regexFilePath string, log *zap.Logger) (*Normalizer, error) {
	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent normalizer initialized", zap.String("regexes_file", regexFilePath))

	return &Normalizer{
		parser: parser,
		log:    log,
	}, nil
}

// BrowserLabel maps a breakdown label onto a browser family name.
func (n *Normalizer) BrowserLabel(label string) string {
	if !LooksRaw(label) {
		return label
	}
	return familyOr(n.parser.ParseUserAgent(label).Family, label)
}

// OSLabel maps a breakdown label onto an operating system family name.
func (n *Normalizer) OSLabel(label string) string {
	if !LooksRaw(label) {
		return label
	}
	return familyOr(n.parser.ParseOs(label).Family, label)
}

// LooksRaw reports whether a breakdown label is an unparsed User-Agent
// string rather than a family name.
func LooksRaw(label string) bool {
	if strings.Contains(label, "Mozilla/") || strings.Contains(label, "(") {
		return true
	}
	return strings.Count(label, "/") >= 2
}

// familyOr keeps the original label when the parser has no opinion, so an
// unrecognized bucket still renders under its own name instead of "Other".
func familyOr(family, label string) string {
	if family == "" || family == "Other" {
		return label
	}
	return family
}
