package qasm

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	lineRegex  = regexp.MustCompile(`^(\w+)\s*(?:\(([^)]*)\))?\s*(.*?);?$`)
	slotRegex  = regexp.MustCompile(`^\{(\d+)\}$`)
	qubitRegex = regexp.MustCompile(`^(?:q\[)?(\d+)\]?$`)
)

// ParseTemplate parses instruction text whose parameters may be placeholders such as {0}.
// Blank lines and lines starting with // are ignored.
func ParseTemplate(text string) (Template, error) {
	b := NewTemplateBuilder()
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		s, err := parseStep(line)
		if err != nil {
			return Template{}, errors.Wrap(err, fmt.Sprintf("line %d %q", lineNo, line))
		}
		b.Add(s.Kind, s.Params, s.Qubits...)
	}
	if err := scanner.Err(); err != nil {
		return Template{}, errors.Wrap(err, "")
	}
	return b.Template(), nil
}

// Parse parses instruction text without placeholders.
func Parse(text string) ([]Instruction, error) {
	t, err := ParseTemplate(text)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if n := t.NumSlots(); n != 0 {
		return nil, errors.Errorf("%d placeholders", n)
	}
	ins, err := t.Bind(nil)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return ins, nil
}

func parseStep(line string) (Step, error) {
	m := lineRegex.FindStringSubmatch(line)
	if m == nil {
		return Step{}, errors.Errorf("malformed")
	}
	s := Step{Kind: Kind(strings.ToLower(m[1]))}
	np, nq, ok := s.Kind.Arity()
	if !ok {
		return Step{}, errors.Errorf("unknown gate %q", m[1])
	}

	if strings.TrimSpace(m[2]) != "" {
		for _, f := range strings.Split(m[2], ",") {
			f = strings.TrimSpace(f)
			if sm := slotRegex.FindStringSubmatch(f); sm != nil {
				i, err := strconv.Atoi(sm[1])
				if err != nil {
					return Step{}, errors.Wrap(err, f)
				}
				s.Params = append(s.Params, Slot(i))
				continue
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return Step{}, errors.Wrap(err, f)
			}
			s.Params = append(s.Params, Lit(v))
		}
	}

	if strings.TrimSpace(m[3]) != "" {
		for _, f := range strings.Split(m[3], ",") {
			f = strings.TrimSpace(f)
			qm := qubitRegex.FindStringSubmatch(f)
			if qm == nil {
				return Step{}, errors.Errorf("qubit %q", f)
			}
			q, err := strconv.Atoi(qm[1])
			if err != nil {
				return Step{}, errors.Wrap(err, f)
			}
			s.Qubits = append(s.Qubits, q)
		}
	}

	if len(s.Params) != np || len(s.Qubits) != nq {
		return Step{}, errors.Errorf("%s: %d params %d qubits, expected %d %d", s.Kind, len(s.Params), len(s.Qubits), np, nq)
	}
	return s, nil
}
