// Package parser normalizes raw enrollment session descriptors into
// (week, program) pairs. Matching is a prioritized rule table: the first
// rule whose pattern matches a descriptor owns it, later rules never see
// it. Unparseable descriptors are logged and dropped, never guessed.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// Pair is one normalized enrollment unit.
type Pair struct {
	Week    int
	Program string
}

// Config carries the reviewable parsing tables. Zero values fall back to
// the season defaults in tables.go.
type Config struct {
	Aliases          map[string]string
	ValidPrograms    map[string]struct{}
	FullSessionWeeks map[string][]int
	TrustWeeks       []int
	SplitKeywords    []string
}

// DefaultConfig returns the current season's tables.
func DefaultConfig() Config {
	valid := make(map[string]struct{}, len(ProgramOrder))
	for _, p := range ProgramOrder {
		valid[p] = struct{}{}
	}
	return Config{
		Aliases:          NameAliases,
		ValidPrograms:    valid,
		FullSessionWeeks: FullSessionWeeks,
		TrustWeeks:       TrustDefaultWeeks,
		SplitKeywords:    SplitKeywords,
	}
}

// Parser matches descriptors against the ordered rule table.
type Parser struct {
	cfg    Config
	logger *zap.Logger
	rules  []rule
}

type rule struct {
	name    string
	re      *regexp.Regexp
	extract func(p *Parser, token string, m []string) []Pair
}

var (
	reWeekProgram    = regexp.MustCompile(`^(?i)week\s+(\d+)\s*(?:\(1wk\))?\s*/\s*(.+)$`)
	reECAWeekProgram = regexp.MustCompile(`^(?i)eca\s+week\s+(\d+)\s*/\s*(.+)$`)
	reFullSession    = regexp.MustCompile(`^(?i)(.+?)\s*-\s*full\s+session\s*/\s*(.+)$`)
	reRangeProgram   = regexp.MustCompile(`^(?i)(.+?)\s+weeks?\s+(\d+)\s*[-–]\s*(\d+)\s*/\s*(.+)$`)
	reBareRange      = regexp.MustCompile(`(?i)weeks?\s*(\d+)\s*[-–]\s*(\d+)`)
	reAmpersand      = regexp.MustCompile(`(?i)weeks?\s*(\d+)\s*&\s*(\d+)`)
	reBareWeek       = regexp.MustCompile(`(?i)weeks?\s+(\d+)`)
	reTrustToken     = regexp.MustCompile(`(?i)children's trust|koach`)
	reWeekNumber     = regexp.MustCompile(`(?i)week\s+(\d+)`)
)

// New builds a parser from the given tables.
func New(cfg Config, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Aliases == nil {
		cfg.Aliases = def.Aliases
	}
	if cfg.ValidPrograms == nil {
		cfg.ValidPrograms = def.ValidPrograms
	}
	if cfg.FullSessionWeeks == nil {
		cfg.FullSessionWeeks = def.FullSessionWeeks
	}
	if cfg.TrustWeeks == nil {
		cfg.TrustWeeks = def.TrustWeeks
	}
	if cfg.SplitKeywords == nil {
		cfg.SplitKeywords = def.SplitKeywords
	}

	p := &Parser{cfg: cfg, logger: logger}
	p.rules = []rule{
		{"week_slash_program", reWeekProgram, extractSingle},
		{"eca_week_slash_program", reECAWeekProgram, extractSingle},
		{"full_session", reFullSession, extractFullSession},
		{"range_slash_program", reRangeProgram, extractRangeProgram},
		{"bare_range", reBareRange, extractBareRange},
		{"ampersand", reAmpersand, extractAmpersand},
		{"bare_week", reBareWeek, extractBareWeek},
		{"trust_no_week", reTrustToken, extractTrust},
	}
	return p
}

// Parse turns one descriptor token into zero or more pairs. The first
// matching rule decides the outcome; a matched rule that yields nothing
// valid still consumes the token.
func (p *Parser) Parse(token string) []Pair {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	for _, r := range p.rules {
		m := r.re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		pairs := r.extract(p, token, m)
		if len(pairs) == 0 {
			p.logger.Warn("descriptor matched rule but produced no enrollment",
				zap.String("rule", r.name), zap.String("descriptor", token))
		}
		return pairs
	}

	p.logger.Warn("unparsed session descriptor", zap.String("descriptor", token))
	return nil
}

// ParseEnrolledField parses a full enrolled-sessions field that may hold
// several comma- or "and"-joined descriptors.
func (p *Parser) ParseEnrolledField(raw string) []Pair {
	var out []Pair
	for _, token := range p.splitDescriptors(raw) {
		out = append(out, p.Parse(token)...)
	}
	return out
}

// ParseApplied zips an applied-sessions column with its applied-programs
// column. Mismatched lengths truncate to the shorter side.
func (p *Parser) ParseApplied(sessions, programs string) []Pair {
	sessionParts := p.splitDescriptors(sessions)
	programParts := splitPlain(programs)

	n := len(sessionParts)
	if len(programParts) < n {
		n = len(programParts)
	}

	var out []Pair
	for i := 0; i < n; i++ {
		program, ok := p.canonical(programParts[i])
		if !ok {
			continue
		}
		m := reWeekNumber.FindStringSubmatch(sessionParts[i])
		if m == nil {
			continue
		}
		week, _ := strconv.Atoi(m[1])
		if validWeek(week) {
			out = append(out, Pair{Week: week, Program: program})
		}
	}
	return out
}

// Normalize maps a raw program name through the alias table without
// requiring it to be a known program. Upstream program names are
// authoritative, so unknown names pass through unchanged.
func (p *Parser) Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if mapped, ok := p.cfg.Aliases[name]; ok {
		return mapped
	}
	if rest, ok := strings.CutPrefix(name, "Children's Trust: "); ok {
		return rest + " Children's Trust"
	}
	return name
}

// canonical maps a raw program name through the alias table and checks it
// against the valid set.
func (p *Parser) canonical(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}
	if mapped, ok := p.cfg.Aliases[name]; ok {
		name = mapped
	} else if rest, ok := strings.CutPrefix(name, "Children's Trust: "); ok {
		name = rest + " Children's Trust"
	}
	if _, ok := p.cfg.ValidPrograms[name]; !ok {
		return "", false
	}
	return name, true
}

func validWeek(w int) bool {
	return w >= models.MinWeek && w <= models.MaxWeek
}

func extractSingle(p *Parser, _ string, m []string) []Pair {
	week, _ := strconv.Atoi(m[1])
	program, ok := p.canonical(m[2])
	if !ok || !validWeek(week) {
		return nil
	}
	return []Pair{{Week: week, Program: program}}
}

func extractFullSession(p *Parser, _ string, m []string) []Pair {
	program, ok := p.canonical(m[2])
	if !ok {
		return nil
	}
	weeks, ok := p.cfg.FullSessionWeeks[program]
	if !ok {
		return nil
	}
	pairs := make([]Pair, 0, len(weeks))
	for _, w := range weeks {
		if validWeek(w) {
			pairs = append(pairs, Pair{Week: w, Program: program})
		}
	}
	return pairs
}

func extractRangeProgram(p *Parser, _ string, m []string) []Pair {
	program, ok := p.canonical(m[4])
	if !ok {
		return nil
	}
	start, _ := strconv.Atoi(m[2])
	end, _ := strconv.Atoi(m[3])
	return rangePairs(program, start, end)
}

func extractBareRange(p *Parser, token string, m []string) []Pair {
	program, ok := p.canonical(stripWeekClause(token, m[0]))
	if !ok {
		return nil
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return rangePairs(program, start, end)
}

// extractAmpersand yields exactly the two listed weeks, never the span
// between them.
func extractAmpersand(p *Parser, token string, m []string) []Pair {
	program, ok := p.canonical(stripWeekClause(token, m[0]))
	if !ok {
		return nil
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	var pairs []Pair
	if validWeek(a) {
		pairs = append(pairs, Pair{Week: a, Program: program})
	}
	if validWeek(b) {
		pairs = append(pairs, Pair{Week: b, Program: program})
	}
	return pairs
}

// extractBareWeek handles a single week suffix with no "/" separator,
// like a Koach session sold for one week.
func extractBareWeek(p *Parser, token string, m []string) []Pair {
	program, ok := p.canonical(stripWeekClause(token, m[0]))
	if !ok {
		return nil
	}
	week, _ := strconv.Atoi(m[1])
	if !validWeek(week) {
		return nil
	}
	return []Pair{{Week: week, Program: program}}
}

func extractTrust(p *Parser, token string, _ []string) []Pair {
	program, ok := p.canonical(token)
	if !ok {
		return nil
	}
	pairs := make([]Pair, 0, len(p.cfg.TrustWeeks))
	for _, w := range p.cfg.TrustWeeks {
		if validWeek(w) {
			pairs = append(pairs, Pair{Week: w, Program: program})
		}
	}
	return pairs
}

func rangePairs(program string, start, end int) []Pair {
	var pairs []Pair
	for w := start; w <= end; w++ {
		if validWeek(w) {
			pairs = append(pairs, Pair{Week: w, Program: program})
		}
	}
	return pairs
}

// stripWeekClause removes the matched week expression from a descriptor
// whose program name and week span share one token.
func stripWeekClause(token, matched string) string {
	idx := strings.Index(strings.ToLower(token), strings.ToLower(matched))
	if idx < 0 {
		return token
	}
	rest := token[:idx] + token[idx+len(matched):]
	return strings.Trim(strings.TrimSpace(rest), "-/ ")
}

// splitDescriptors breaks a raw field on ", " and " and ", but only when
// the text after the break starts a recognized descriptor. Commas inside
// a single program's name never split.
func (p *Parser) splitDescriptors(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var out []string
	for _, seg := range splitLookahead(raw, ",", p.cfg.SplitKeywords) {
		out = append(out, splitLookahead(seg, " and ", p.cfg.SplitKeywords)...)
	}
	return out
}

func splitLookahead(s, delim string, keywords []string) []string {
	parts := strings.Split(s, delim)
	var out []string
	cur := parts[0]
	for _, next := range parts[1:] {
		if startsWithKeyword(next, keywords) {
			if trimmed := strings.TrimSpace(cur); trimmed != "" {
				out = append(out, trimmed)
			}
			cur = next
			continue
		}
		cur += delim + next
	}
	if trimmed := strings.TrimSpace(cur); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}

func startsWithKeyword(s string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, kw := range keywords {
		if strings.HasPrefix(lower, kw) {
			return true
		}
	}
	return false
}

func splitPlain(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		for _, sub := range strings.Split(part, " and ") {
			if trimmed := strings.TrimSpace(sub); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
