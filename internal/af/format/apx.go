package format

import (
	"fmt"
	"strings"

	"dynaf/internal/af"
)

// parseAPX reads an apx instance: a sequence of `arg(ID).` and
// `att(FROM,TO).` facts. Whitespace between tokens is tolerated, as is
// more than one fact per line.
func parseAPX(input string) ([]string, []af.Attack, error) {
	var args []string
	var attacks []af.Attack

	for lineNr, line := range strings.Split(input, "\n") {
		rest := strings.TrimSpace(line)
		for rest != "" {
			fact, tail, err := splitFact(rest, lineNr+1)
			if err != nil {
				return nil, nil, err
			}
			rest = strings.TrimSpace(tail)

			name, inner, err := splitCall(fact, lineNr+1)
			if err != nil {
				return nil, nil, err
			}
			switch name {
			case "arg":
				id := strings.TrimSpace(inner)
				if !validIdent(id) {
					return nil, nil, &Error{Line: lineNr + 1, Detail: fmt.Sprintf("invalid argument identifier %q", inner)}
				}
				args = append(args, id)
			case "att":
				from, to, err := splitPair(inner, lineNr+1)
				if err != nil {
					return nil, nil, err
				}
				attacks = append(attacks, af.Attack{From: from, To: to})
			default:
				return nil, nil, &Error{Line: lineNr + 1, Detail: fmt.Sprintf("expected arg(..) or att(..), found %q", name)}
			}
		}
	}
	return args, attacks, nil
}

// splitFact cuts one `name(args).` fact off the front of s.
func splitFact(s string, line int) (fact, tail string, err error) {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return "", "", &Error{Line: line, Detail: fmt.Sprintf("missing %q after fact %q", ".", s)}
	}
	return strings.TrimSpace(s[:dot]), s[dot+1:], nil
}

func splitCall(fact string, line int) (name, inner string, err error) {
	open := strings.IndexByte(fact, '(')
	if open < 0 || !strings.HasSuffix(fact, ")") {
		return "", "", &Error{Line: line, Detail: fmt.Sprintf("malformed fact %q", fact)}
	}
	// tolerate `att (a,b)` spacing seen in the wild
	return strings.TrimSpace(fact[:open]), fact[open+1 : len(fact)-1], nil
}

func splitPair(inner string, line int) (from, to string, err error) {
	comma := strings.IndexByte(inner, ',')
	if comma < 0 {
		return "", "", &Error{Line: line, Detail: fmt.Sprintf("attack needs two arguments, found %q", inner)}
	}
	from = strings.TrimSpace(inner[:comma])
	to = strings.TrimSpace(inner[comma+1:])
	if !validIdent(from) || !validIdent(to) || strings.ContainsRune(to, ',') {
		return "", "", &Error{Line: line, Detail: fmt.Sprintf("invalid attack arguments %q", inner)}
	}
	return from, to, nil
}

// writeAPX renders the snapshot as an apx instance, one fact per line,
// arguments first.
func writeAPX(b *strings.Builder, snap af.Snapshot) {
	for _, id := range snap.Args {
		fmt.Fprintf(b, "arg(%s).\n", id)
	}
	for _, att := range snap.Attacks {
		fmt.Fprintf(b, "att(%s,%s).\n", att.From, att.To)
	}
}

// parseAPXMLine parses one apxm update line into ordered update ops.
//
//	+arg(a4):att(a4,a1):att(a2,a4).
//	+att(a1,a3).
//	-att(a2,a1).
//	-arg(a3).
//
// A `-arg` line cascades: the removal sweeps incident attacks, since the
// updates grammar has no way to list them.
func parseAPXMLine(line string, lineNr int) ([]af.UpdateOp, error) {
	s := strings.TrimSpace(line)
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return nil, nil
	}

	var sign byte
	switch s[0] {
	case '+', '-':
		sign = s[0]
		s = s[1:]
	default:
		return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("update line must start with + or -, found %q", line)}
	}

	parts := strings.Split(s, ":")
	var ops []af.UpdateOp
	for i, part := range parts {
		name, inner, err := splitCall(strings.TrimSpace(part), lineNr)
		if err != nil {
			return nil, err
		}
		switch name {
		case "arg":
			id := strings.TrimSpace(inner)
			if !validIdent(id) {
				return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("invalid argument identifier %q", inner)}
			}
			if i != 0 {
				return nil, &Error{Line: lineNr, Detail: "arg(..) is only allowed as the first element of an update line"}
			}
			if sign == '+' {
				ops = append(ops, af.NewAddArgument(id))
			} else {
				ops = append(ops, af.NewRemoveArgument(id, true))
			}
		case "att":
			from, to, err := splitPair(inner, lineNr)
			if err != nil {
				return nil, err
			}
			if sign == '+' {
				ops = append(ops, af.NewAddAttack(from, to))
			} else {
				if len(parts) > 1 {
					return nil, &Error{Line: lineNr, Detail: "attack removals must come one per line"}
				}
				ops = append(ops, af.NewRemoveAttack(from, to))
			}
		default:
			return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("expected arg(..) or att(..), found %q", name)}
		}
	}
	return ops, nil
}

// formatAPXMLine renders ops produced from a single update line back into
// the apxm grammar. ops must be one argument op optionally followed by
// attack additions, or a single attack op.
func formatAPXMLine(ops []af.UpdateOp) (string, error) {
	if len(ops) == 0 {
		return "", fmt.Errorf("empty update")
	}
	var b strings.Builder
	for i, op := range ops {
		switch op.Kind {
		case af.AddArgument:
			if i != 0 {
				return "", fmt.Errorf("argument op %s must lead the line", op)
			}
			fmt.Fprintf(&b, "+arg(%s)", op.Arg)
		case af.RemoveArgument:
			if len(ops) != 1 {
				return "", fmt.Errorf("argument removal must stand alone")
			}
			fmt.Fprintf(&b, "-arg(%s)", op.Arg)
		case af.AddAttack:
			if i == 0 {
				fmt.Fprintf(&b, "+att(%s,%s)", op.Att.From, op.Att.To)
			} else {
				fmt.Fprintf(&b, ":att(%s,%s)", op.Att.From, op.Att.To)
			}
		case af.RemoveAttack:
			if len(ops) != 1 {
				return "", fmt.Errorf("attack removal must stand alone")
			}
			fmt.Fprintf(&b, "-att(%s,%s)", op.Att.From, op.Att.To)
		default:
			return "", fmt.Errorf("cannot format %s", op)
		}
	}
	b.WriteByte('.')
	return b.String(), nil
}
