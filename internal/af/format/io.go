package format

import (
	"bufio"
	"io"
	"os"
	"strings"

	"dynaf/internal/af"
)

// ReadInstance parses an instance in the given format and constructs the
// framework. Malformed input surfaces an *Error before any model exists.
func ReadInstance(r io.Reader, kind Kind) (*af.Framework, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseInstance(string(data), kind)
}

// ReadInstanceFile reads an instance file, detecting the format from the
// content when kind is zero: apx is tried first, then tgf, mirroring the
// reader this replaces.
func ReadInstanceFile(path string, kind Kind) (*af.Framework, Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	input := string(data)

	if kind != 0 {
		fw, err := parseInstance(input, kind)
		return fw, kind, err
	}
	if fw, err := parseInstance(input, APX); err == nil {
		return fw, APX, nil
	}
	fw, err := parseInstance(input, TGF)
	return fw, TGF, err
}

func parseInstance(input string, kind Kind) (*af.Framework, error) {
	var (
		args    []string
		attacks []af.Attack
		err     error
	)
	switch kind {
	case APX:
		args, attacks, err = parseAPX(input)
	case TGF:
		args, attacks, err = parseTGF(input)
	default:
		return nil, &Error{Detail: "no format selected"}
	}
	if err != nil {
		return nil, err
	}
	return af.NewFromInstance(args, attacks)
}

// WriteInstance renders the snapshot in the given format.
func WriteInstance(w io.Writer, snap af.Snapshot, kind Kind) error {
	var b strings.Builder
	switch kind {
	case APX:
		writeAPX(&b, snap)
	case TGF:
		writeTGF(&b, snap)
	default:
		return &Error{Detail: "no format selected"}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ParseUpdateLine parses one update line of the format's companion
// updates grammar into the ordered ops it denotes. Blank lines yield no
// ops and no error.
func ParseUpdateLine(line string, kind Kind) ([]af.UpdateOp, error) {
	return parseUpdateLine(line, 0, kind)
}

func parseUpdateLine(line string, lineNr int, kind Kind) ([]af.UpdateOp, error) {
	switch kind {
	case APX:
		return parseAPXMLine(line, lineNr)
	case TGF:
		return parseTGFMLine(line, lineNr)
	default:
		return nil, &Error{Detail: "no format selected"}
	}
}

// ReadUpdates parses a whole updates file into per-line op groups. Each
// group corresponds to one update line and stays together: an argument
// addition and the attacks riding on its line form one batch.
func ReadUpdates(r io.Reader, kind Kind) ([][]af.UpdateOp, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var batches [][]af.UpdateOp
	lineNr := 0
	for sc.Scan() {
		lineNr++
		ops, err := parseUpdateLine(sc.Text(), lineNr, kind)
		if err != nil {
			return nil, err
		}
		if len(ops) > 0 {
			batches = append(batches, ops)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// ReadUpdatesFile reads the paired updates file for an instance.
func ReadUpdatesFile(path string, kind Kind) ([][]af.UpdateOp, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadUpdates(f, kind)
}

// FormatUpdateLine renders one update batch in the format's updates
// grammar.
func FormatUpdateLine(ops []af.UpdateOp, kind Kind) (string, error) {
	switch kind {
	case APX:
		return formatAPXMLine(ops)
	case TGF:
		return formatTGFMLine(ops)
	default:
		return "", &Error{Detail: "no format selected"}
	}
}
