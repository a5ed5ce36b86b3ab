// Package fragment renders and parses implementor fragments.
//
// A fragment is the generated script artifact a documentation build emits
// per trait: an immediately-invoked function that builds the implementor
// table as an object literal, then hands it to the page. If the page has
// already installed its callback the table is delivered right away;
// otherwise it is parked on a pending slot for the page to pick up:
//
//	(function() {var implementors = {};
//	implementors["super_analyzer"] = [{"text":"impl Drop for Config","synthetic":false,"types":["super_analyzer::config::Config"]}];
//	if (window.register_implementors) {
//	    window.register_implementors(implementors);
//	} else {
//	    window.pending_implementors = implementors;
//	}
//	})()
//
// Render and Parse are inverses: Parse(Render(t)) reproduces t, including
// crate key order and record order.
package fragment

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/index"
)

const (
	header = "(function() {var implementors = {};"
	footer = `if (window.register_implementors) {
    window.register_implementors(implementors);
} else {
    window.pending_implementors = implementors;
}
})()`

	linePrefix    = `implementors["`
	lineSeparator = `"] = `
)

// Render emits the fragment for the given table. Crates appear in the
// table's insertion order. Record text is emitted verbatim; the embedded
// HTML is not entity-escaped.
func Render(table *index.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')

	for _, crate := range table.Keys() {
		records, _ := table.Get(crate)
		payload, err := marshalRecords(records)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode crate %s", crate)
		}
		buf.WriteString(linePrefix)
		buf.WriteString(crate)
		buf.WriteString(lineSeparator)
		buf.Write(payload)
		buf.WriteString(";\n")
	}

	buf.WriteString(footer)
	return buf.Bytes(), nil
}

// marshalRecords encodes records without HTML escaping, so descriptor
// markup survives byte-exact.
func marshalRecords(records []index.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	// Encode appends a newline; the fragment supplies its own.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Parse recovers the implementor table from fragment source. It accepts
// leading/trailing whitespace around lines but is strict about structure:
// the header, zero or more assignment lines, and the registration shim.
func Parse(src []byte) (*index.Table, error) {
	table := index.NewTable()
	sawHeader := false

	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "(function()"):
			if !strings.Contains(line, "var implementors") {
				return nil, errors.New(errors.ErrCodeInvalidFragment, "malformed fragment header")
			}
			sawHeader = true
		case strings.HasPrefix(line, linePrefix):
			if !sawHeader {
				return nil, errors.New(errors.ErrCodeInvalidFragment, "assignment before fragment header")
			}
			crate, records, err := parseAssignment(line)
			if err != nil {
				return nil, err
			}
			if err := table.Add(crate, records...); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFragment, err, "duplicate or invalid crate")
			}
		default:
			// Shim and closing lines carry no table data.
		}
	}

	if !sawHeader {
		return nil, errors.New(errors.ErrCodeInvalidFragment, "missing fragment header")
	}
	return table, nil
}

// parseAssignment decodes one `implementors["crate"] = [...];` line.
func parseAssignment(line string) (string, []index.Record, error) {
	rest := line[len(linePrefix):]
	sep := strings.Index(rest, lineSeparator)
	if sep < 0 {
		return "", nil, errors.New(errors.ErrCodeInvalidFragment, "malformed assignment: %s", truncate(line))
	}

	crate := rest[:sep]
	if err := errors.ValidateCrateName(crate); err != nil {
		return "", nil, err
	}

	payload := strings.TrimSuffix(rest[sep+len(lineSeparator):], ";")
	var records []index.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidFragment, err, "decode records for crate %s", crate)
	}
	if len(records) == 0 {
		return "", nil, errors.New(errors.ErrCodeInvalidFragment, "crate %s has no records", crate)
	}
	return crate, records, nil
}

func truncate(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
