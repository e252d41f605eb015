package format

import (
	"fmt"
	"strings"

	"dynaf/internal/af"
)

// parseTGF reads a tgf instance: argument identifiers one per line, a
// lone `#`, then `FROM TO` attack lines.
func parseTGF(input string) ([]string, []af.Attack, error) {
	var args []string
	var attacks []af.Attack
	seenSep := false

	for lineNr, raw := range strings.Split(input, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if line == "#" {
			if seenSep {
				return nil, nil, &Error{Line: lineNr + 1, Detail: "duplicate # separator"}
			}
			seenSep = true
			continue
		}
		if !seenSep {
			if !validIdent(line) {
				return nil, nil, &Error{Line: lineNr + 1, Detail: fmt.Sprintf("invalid argument identifier %q", line)}
			}
			args = append(args, line)
			continue
		}
		from, to, err := splitEdge(line, lineNr+1)
		if err != nil {
			return nil, nil, err
		}
		attacks = append(attacks, af.Attack{From: from, To: to})
	}

	if !seenSep && len(args) == 0 {
		return nil, nil, &Error{Detail: "empty tgf input"}
	}
	return args, attacks, nil
}

func splitEdge(line string, lineNr int) (from, to string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || !validIdent(fields[0]) || !validIdent(fields[1]) {
		return "", "", &Error{Line: lineNr, Detail: fmt.Sprintf("expected %q, found %q", "FROM TO", line)}
	}
	return fields[0], fields[1], nil
}

// writeTGF renders the snapshot as a tgf instance.
func writeTGF(b *strings.Builder, snap af.Snapshot) {
	for _, id := range snap.Args {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	b.WriteString("#\n")
	for _, att := range snap.Attacks {
		fmt.Fprintf(b, "%s %s\n", att.From, att.To)
	}
}

// parseTGFMLine parses one tgfm update line.
//
//	+a4:a4 a1:a2 a4.
//	+a1 a3
//	-a2 a1
//	-a3
//
// One token after the sign is an argument op, two tokens an attack op;
// `+ID` may carry a colon-separated attack list like apxm. A trailing
// period is accepted in all positions.
func parseTGFMLine(line string, lineNr int) ([]af.UpdateOp, error) {
	s := strings.TrimSpace(line)
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return nil, nil
	}

	var sign byte
	switch s[0] {
	case '+', '-':
		sign = s[0]
		s = strings.TrimSpace(s[1:])
	default:
		return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("update line must start with + or -, found %q", line)}
	}

	var ops []af.UpdateOp
	for i, part := range strings.Split(s, ":") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 1:
			if !validIdent(fields[0]) {
				return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("invalid argument identifier %q", fields[0])}
			}
			if i != 0 {
				return nil, &Error{Line: lineNr, Detail: "argument may only lead an update line"}
			}
			if sign == '+' {
				ops = append(ops, af.NewAddArgument(fields[0]))
			} else {
				ops = append(ops, af.NewRemoveArgument(fields[0], true))
			}
		case 2:
			if !validIdent(fields[0]) || !validIdent(fields[1]) {
				return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("invalid attack %q", part)}
			}
			if sign == '+' {
				ops = append(ops, af.NewAddAttack(fields[0], fields[1]))
			} else {
				if i != 0 {
					return nil, &Error{Line: lineNr, Detail: "attack removals must come one per line"}
				}
				ops = append(ops, af.NewRemoveAttack(fields[0], fields[1]))
			}
		default:
			return nil, &Error{Line: lineNr, Detail: fmt.Sprintf("malformed update element %q", part)}
		}
	}
	return ops, nil
}

func formatTGFMLine(ops []af.UpdateOp) (string, error) {
	if len(ops) == 0 {
		return "", fmt.Errorf("empty update")
	}
	var b strings.Builder
	for i, op := range ops {
		if i > 0 {
			if op.Kind != af.AddAttack {
				return "", fmt.Errorf("only attack additions may follow the leading op")
			}
			fmt.Fprintf(&b, ":%s %s", op.Att.From, op.Att.To)
			continue
		}
		switch op.Kind {
		case af.AddArgument:
			fmt.Fprintf(&b, "+%s", op.Arg)
		case af.RemoveArgument:
			fmt.Fprintf(&b, "-%s", op.Arg)
		case af.AddAttack:
			fmt.Fprintf(&b, "+%s %s", op.Att.From, op.Att.To)
		case af.RemoveAttack:
			fmt.Fprintf(&b, "-%s %s", op.Att.From, op.Att.To)
		default:
			return "", fmt.Errorf("cannot format %s", op)
		}
	}
	return b.String(), nil
}
