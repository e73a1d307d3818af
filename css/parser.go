package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses stylesheets of the diagram view looking for custom
// properties.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	p.parseBlock(parser, sheet, "", false)

	p.log.Debug("Parsed CSS", zap.Int("rules", len(sheet.Rules)), zap.Int("warnings", len(sheet.Warnings)))
	return sheet
}

// parseBlock consumes rules until end of input or, when nested, until end of
// enclosing @-rule block.
func (p *Parser) parseBlock(parser *css.Parser, sheet *Stylesheet, media string, nested bool) {
	var pending []string
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				sheet.Warnings = append(sheet.Warnings, err.Error())
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return

		case css.EndAtRuleGrammar:
			if nested {
				return
			}

		case css.BeginAtRuleGrammar:
			atRule := strings.ToLower(string(data))
			switch atRule {
			case "@media":
				query := joinTokens(parser.Values())
				if media != "" {
					query = media + " and " + query
				}
				p.parseBlock(parser, sheet, query, true)
			case "@layer", "@supports":
				// rules inside are as good as top level ones
				p.parseBlock(parser, sheet, media, true)
			default:
				p.skipAtRuleBlock(parser)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			if strings.EqualFold(string(data), "@import") {
				if url := extractImportURL(parser.Values()); url != "" {
					sheet.Imports = append(sheet.Imports, url)
					p.log.Debug("Parsed @import", zap.String("url", url))
				}
			}

		case css.QualifiedRuleGrammar:
			// grouped selectors come one by one, the last one opens ruleset
			pending = append(pending, parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			rule := Rule{
				Selectors: append(pending, parseSelectors(data, parser.Values())...),
				Media:     media,
			}
			pending = nil
			rule.Properties, rule.Custom = p.parseDeclarations(parser)
			if len(rule.Selectors) > 0 {
				sheet.Rules = append(sheet.Rules, rule)
			}
		}
	}
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := strings.TrimPrefix(string(t.Data), "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// parseSelectors extracts selector strings from token data.
func parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	// Split by comma for grouped selectors
	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) (props, custom map[string]string) {
	props = make(map[string]string)
	custom = make(map[string]string)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props, custom

		case css.DeclarationGrammar:
			if v := joinTokens(parser.Values()); v != "" {
				props[strings.ToLower(string(data))] = v
			}

		case css.CustomPropertyGrammar:
			// custom property names are case sensitive
			custom[string(data)] = cleanCustomValue(parser.Values())
		}
	}
}

// joinTokens builds raw value collapsing whitespace.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(t.Data)
	}
	return sb.String()
}

// cleanCustomValue returns custom property value as written, without
// surrounding whitespace and !important.
func cleanCustomValue(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	v := strings.TrimSpace(sb.String())
	if i := strings.LastIndex(v, "!"); i >= 0 && strings.EqualFold(strings.TrimSpace(v[i+1:]), "important") {
		v = strings.TrimSpace(v[:i])
	}
	return strings.Join(strings.Fields(v), " ")
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
