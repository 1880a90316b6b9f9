// Package textproc turns raw transcript segments into readable note text:
// paragraph detection, caption artifact cleanup, filler removal, keyword
// extraction and language detection.
package textproc

import (
	"regexp"
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/MimeLyc/video-notemaker/internal/video"
)

// fillerWords are removed from processed text when filler removal is on.
var fillerWords = []string{
	"um", "uh", "ah", "er", "you know", "i mean",
	"sort of", "kind of", "basically", "actually", "literally",
}

// captionArtifacts are auto-caption annotations that carry no speech.
var captionArtifacts = []string{"[Music]", "[Applause]", "[Laughter]", "[music]", "[applause]", "[laughter]"}

var (
	multiSpace    = regexp.MustCompile(`\s+`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	fillerPattern *regexp.Regexp
)

func init() {
	escaped := make([]string, len(fillerWords))
	for i, w := range fillerWords {
		escaped[i] = regexp.QuoteMeta(w)
	}
	fillerPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

type Config struct {
	// MinPause is the gap between segments (seconds) that starts a new
	// paragraph.
	MinPause float64
	// RemoveFillers strips spoken filler words from the processed text.
	RemoveFillers bool
	// KeywordCount bounds the extracted keyword list.
	KeywordCount int
}

func (c Config) withDefaults() Config {
	if c.MinPause <= 0 {
		c.MinPause = 2.0
	}
	if c.KeywordCount <= 0 {
		c.KeywordCount = 10
	}
	return c
}

// Result is the processed form of one transcript.
type Result struct {
	// Text is the full processed text with paragraph breaks.
	Text string
	// Paragraphs are the individual paragraphs of Text.
	Paragraphs []string
	// Keywords are the most frequent non-stopword terms, ordered by
	// frequency.
	Keywords []string
	// Language is the detected (or carried-over) ISO 639-1 language code.
	Language string
	// WordCount counts words in Text.
	WordCount int
}

type Processor struct {
	cfg Config
}

func NewProcessor(cfg Config) *Processor {
	return &Processor{cfg: cfg.withDefaults()}
}

// Process is pure text assembly over in-memory segments; it does not block.
func (p *Processor) Process(transcript *video.Transcript) (*Result, error) {
	paragraphs := p.buildParagraphs(transcript.Segments)

	text := strings.Join(paragraphs, "\n\n")
	lang := transcript.Language
	if lang == "" {
		lang = DetectLanguage(transcript.Segments)
	}

	return &Result{
		Text:       text,
		Paragraphs: paragraphs,
		Keywords:   ExtractKeywords(text, p.cfg.KeywordCount),
		Language:   lang,
		WordCount:  len(strings.Fields(text)),
	}, nil
}

// buildParagraphs groups segments into paragraphs at pauses of at least
// MinPause seconds.
func (p *Processor) buildParagraphs(segments []video.Segment) []string {
	var paragraphs []string
	var current []string

	for i, seg := range segments {
		text := CleanCaptionText(seg.Text)
		if p.cfg.RemoveFillers {
			text = RemoveFillerWords(text)
		}
		if text != "" {
			current = append(current, text)
		}

		breakHere := i == len(segments)-1
		if !breakHere {
			pause := segments[i+1].Start - seg.End
			breakHere = pause >= p.cfg.MinPause
		}
		if breakHere && len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	return paragraphs
}

// CleanCaptionText strips auto-caption artifacts and collapses whitespace.
func CleanCaptionText(text string) string {
	for _, artifact := range captionArtifacts {
		text = strings.ReplaceAll(text, artifact, "")
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(text, " "))
}

// RemoveFillerWords drops spoken fillers ("um", "you know", ...) from text.
func RemoveFillerWords(text string) string {
	text = fillerPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(text, " "))
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"the a an and or but in on at to for of with by from as is was are were been " +
			"be have has had do does did will would could should may might can this that " +
			"these those i you he she it we they what which who when where why how so " +
			"than too very just like going gonna really thing things") {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords returns the topN most frequent terms longer than three
// characters, stop words excluded, ordered by descending frequency with
// alphabetical tie-break.
func ExtractKeywords(text string, topN int) []string {
	text = strings.ToLower(nonWord.ReplaceAllString(text, ""))

	freq := make(map[string]int)
	for _, word := range strings.Fields(text) {
		if len(word) <= 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		freq[word]++
	}

	type wordCount struct {
		word  string
		count int
	}
	counts := make([]wordCount, 0, len(freq))
	for w, c := range freq {
		counts = append(counts, wordCount{word: w, count: c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].word < counts[j].word
	})

	if topN > len(counts) {
		topN = len(counts)
	}
	keywords := make([]string, 0, topN)
	for _, wc := range counts[:topN] {
		keywords = append(keywords, wc.word)
	}
	return keywords
}

// DetectLanguage picks the majority language across segments.
func DetectLanguage(segments []video.Segment) string {
	if len(segments) == 0 {
		return ""
	}

	langMap := make(map[string]int)
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lang := whatlanggo.DetectLang(text).Iso6391()
		if lang == "" {
			continue
		}
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return ""
	}
	return language.Make(topLang).String()
}
