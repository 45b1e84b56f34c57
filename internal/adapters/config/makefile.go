package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	specialTarget = regexp.MustCompile(`^\.[A-Z_]+$`)
	suffixRule    = regexp.MustCompile(`^\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+$`)
	variableRef   = regexp.MustCompile(`\$\(([^()]*)\)|\$\{([^{}]*)\}|\$([^({])`)
)

var directives = map[string]bool{
	"include": true, "-include": true, "sinclude": true,
	"ifeq": true, "ifneq": true, "ifdef": true, "ifndef": true, "else": true, "endif": true,
	"export": true, "unexport": true, "override": true, "private": true,
	"vpath": true, "undefine": true, "load": true, "-load": true,
}

// logicalLine is a line after continuations have been joined.
type logicalLine struct {
	text   string
	number int
	recipe bool
}

// makefile accumulates rules in declaration order.
type makefile struct {
	order    []string
	deps     map[string][]string
	seen     map[string]map[string]bool
	vars     map[string]string
	warnings []string
}

// ParseMakefile extracts the target graph from Makefile syntax.
//
// Only rule lines contribute to the graph. Recipes, comments, variable
// assignments, directives, special targets and pattern rules are skipped.
// Variables defined in the file are expanded in rule lines. A target named by
// several rules accumulates their prerequisites, and prerequisites that have
// no rule of their own become leaf targets after all rule targets.
// The returned warnings describe constructs that were ignored.
func ParseMakefile(r io.Reader) (*domain.Graph, []string, error) {
	lines, err := readLogicalLines(r)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrConfigRead, "reading makefile"), "reason", err.Error())
	}

	m := &makefile{
		deps: make(map[string][]string),
		seen: make(map[string]map[string]bool),
		vars: make(map[string]string),
	}

	inDefine := false
	for _, line := range lines {
		if line.recipe {
			continue
		}
		text := strings.TrimSpace(stripComment(line.text))
		if text == "" {
			continue
		}

		word, _, _ := strings.Cut(text, " ")
		if inDefine {
			if word == "endef" {
				inDefine = false
			}
			continue
		}
		if word == "define" {
			inDefine = true
			continue
		}

		if err := m.parseLine(text, line.number); err != nil {
			return nil, nil, err
		}
	}

	return m.graph(), m.warnings, nil
}

func (m *makefile) parseLine(text string, number int) error {
	word, rest, _ := strings.Cut(text, " ")
	if directives[word] {
		switch {
		case (word == "export" || word == "override" || word == "private") && isAssignment(rest):
			m.assign(strings.TrimSpace(rest), number)
		case strings.HasSuffix(word, "include"):
			m.warnf(number, "not following %s %s", word, strings.TrimSpace(rest))
		}
		return nil
	}

	if isAssignment(text) {
		m.assign(text, number)
		return nil
	}

	colon := topLevelIndex(text, ':')
	if colon < 0 {
		if strings.HasPrefix(text, "$") {
			m.warnf(number, "ignoring expression %q", text)
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrParse, "missing separator"), "line", number)
	}

	left := strings.TrimSuffix(strings.TrimSpace(text[:colon]), "&")
	right := strings.TrimLeft(text[colon+1:], ":")
	if recipe := strings.IndexByte(right, ';'); recipe >= 0 {
		right = right[:recipe]
	}
	if topLevelIndex(right, '=') >= 0 {
		// Target-specific variable assignment.
		return nil
	}
	if topLevelIndex(right, ':') >= 0 {
		m.warnf(number, "ignoring static pattern rule for %q", strings.TrimSpace(left))
		return nil
	}

	targets := strings.Fields(m.expand(left, number))
	if len(targets) == 0 {
		return zerr.With(zerr.Wrap(domain.ErrParse, "rule without target"), "line", number)
	}

	// Order-only prerequisites are built first all the same.
	prereqs := strings.Fields(strings.ReplaceAll(m.expand(right, number), "|", " "))

	for _, t := range targets {
		if strings.Contains(t, "%") {
			m.warnf(number, "ignoring pattern rule %q", t)
			return nil
		}
	}
	for _, t := range targets {
		if specialTarget.MatchString(t) || (len(prereqs) == 0 && suffixRule.MatchString(t)) {
			continue
		}
		m.addRule(t, prereqs)
	}
	return nil
}

func (m *makefile) addRule(target string, prereqs []string) {
	seen, ok := m.seen[target]
	if !ok {
		seen = make(map[string]bool)
		m.seen[target] = seen
		m.order = append(m.order, target)
		m.deps[target] = nil
	}
	for _, p := range prereqs {
		if seen[p] {
			continue
		}
		seen[p] = true
		m.deps[target] = append(m.deps[target], p)
	}
}

// assign records a variable assignment. Only the forms that affect a later
// expansion of rule lines are evaluated; shell assignments are ignored.
func (m *makefile) assign(text string, number int) {
	eq := topLevelIndex(text, '=')
	name := strings.TrimSpace(text[:eq])
	value := strings.TrimSpace(text[eq+1:])

	switch {
	case strings.HasSuffix(name, "::"):
		name = strings.TrimRight(name, ":")
		m.vars[strings.TrimSpace(name)] = m.expand(value, number)
	case strings.HasSuffix(name, ":"):
		m.vars[strings.TrimSpace(name[:len(name)-1])] = m.expand(value, number)
	case strings.HasSuffix(name, "?"):
		name = strings.TrimSpace(name[:len(name)-1])
		if _, ok := m.vars[name]; !ok {
			m.vars[name] = value
		}
	case strings.HasSuffix(name, "+"):
		name = strings.TrimSpace(name[:len(name)-1])
		if prev := m.vars[name]; prev != "" {
			value = prev + " " + value
		}
		m.vars[name] = value
	case strings.HasSuffix(name, "!"):
	default:
		m.vars[name] = value
	}
}

// expand substitutes variable references. Undefined variables expand to the
// empty string, as in make; function calls are not evaluated.
func (m *makefile) expand(text string, number int) string {
	for range 16 {
		if !strings.Contains(text, "$") {
			return text
		}
		expanded := variableRef.ReplaceAllStringFunc(text, func(ref string) string {
			groups := variableRef.FindStringSubmatch(ref)
			name := groups[1] + groups[2] + groups[3]
			if name == "$" {
				return "$"
			}
			if strings.ContainsAny(name, " \t,") {
				m.warnf(number, "ignoring function call %q", ref)
				return ""
			}
			if name, subst, ok := strings.Cut(name, ":"); ok {
				return substitute(m.lookup(name), subst)
			}
			return m.lookup(name)
		})
		if expanded == text {
			return text
		}
		text = expanded
	}
	return text
}

// lookup returns the value of a variable. As in make, the environment provides
// defaults for variables the file does not set.
func (m *makefile) lookup(name string) string {
	if v, ok := m.vars[name]; ok {
		return v
	}
	return os.Getenv(name)
}

// substitute applies a substitution reference such as $(SRCS:.c=.o).
func substitute(value, subst string) string {
	from, to, ok := strings.Cut(subst, "=")
	if !ok {
		return value
	}
	if strings.HasPrefix(from, "%") && strings.HasPrefix(to, "%") {
		from, to = from[1:], to[1:]
	}
	words := strings.Fields(value)
	for i, w := range words {
		if base, found := strings.CutSuffix(w, from); found {
			words[i] = base + to
		}
	}
	return strings.Join(words, " ")
}

func (m *makefile) warnf(number int, format string, args ...any) {
	m.warnings = append(m.warnings, fmt.Sprintf("%d: ", number)+fmt.Sprintf(format, args...))
}

func (m *makefile) graph() *domain.Graph {
	order := m.order
	if goal := strings.TrimSpace(m.vars[".DEFAULT_GOAL"]); goal != "" && m.seen[goal] != nil {
		order = append([]string{goal}, removeString(order, goal)...)
	}

	g := domain.NewGraph()
	for _, t := range order {
		// Names are unique in order, so AddTarget cannot fail.
		_ = g.AddTarget(domain.NewTargetName(t), domain.TargetNames(m.deps[t]...))
	}
	for _, t := range order {
		for _, p := range m.deps[t] {
			g.EnsureTarget(domain.NewTargetName(p))
		}
	}
	return g
}

// isAssignment reports whether text is a variable assignment rather than a rule.
func isAssignment(text string) bool {
	eq := topLevelIndex(text, '=')
	if eq < 0 {
		return false
	}
	colon := topLevelIndex(text, ':')
	if colon < 0 || colon > eq {
		return true
	}
	// :=, ::= and :::= are assignments; "a: b=c" is a target-specific variable.
	return strings.Trim(text[colon:eq], ":") == ""
}

// stripComment removes an unescaped # and everything after it.
func stripComment(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '#' {
			continue
		}
		if i > 0 && text[i-1] == '\\' {
			continue
		}
		return text[:i]
	}
	return text
}

// topLevelIndex returns the index of c outside of variable references, or -1.
func topLevelIndex(text string, c byte) int {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '{':
			depth++
		case ')', '}':
			if depth > 0 {
				depth--
			}
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// readLogicalLines joins backslash continuations and marks recipe lines.
func readLogicalLines(r io.Reader) ([]logicalLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lines   []logicalLine
		current *logicalLine
		number  int
	)
	for scanner.Scan() {
		number++
		text := strings.TrimSuffix(scanner.Text(), "\r")

		if current == nil {
			current = &logicalLine{number: number, recipe: strings.HasPrefix(text, "\t")}
		} else {
			text = strings.TrimLeft(text, " \t")
			current.text += " "
		}

		if continued(text) {
			current.text += text[:len(text)-1]
			continue
		}
		current.text += text
		lines = append(lines, *current)
		current = nil
	}
	if current != nil {
		lines = append(lines, *current)
	}
	return lines, scanner.Err()
}

// continued reports whether text ends with an odd number of backslashes.
func continued(text string) bool {
	n := 0
	for i := len(text) - 1; i >= 0 && text[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
