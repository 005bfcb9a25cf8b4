package sensor

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// commentMarker starts a comment that runs to the end of the line.
const commentMarker = "#"

// LoadList reads a sensor list from the file at path.
//
// Returns:
//   - []Spec: Sensors in file order (duplicates preserved)
//   - error: *ListError with file and line context on any failure
func LoadList(path string) ([]Spec, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator's command line
	if err != nil {
		return nil, &ListError{File: path, Err: err}
	}
	defer f.Close()

	return ParseList(f, path)
}

// ParseList parses a sensor list from r. name is only used for error context.
//
// Each non-empty line after comment stripping must hold at least two
// whitespace-separated fields: the bus id and the sensor name. Further
// fields are ignored.
func ParseList(r io.Reader, name string) ([]Spec, error) {
	var specs []Spec

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++

		line := scanner.Text()
		if ix := strings.Index(line, commentMarker); ix != -1 {
			line = line[:ix]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, &ListError{File: name, Line: lineno, Err: ErrNotEnoughFields}
		}

		specs = append(specs, Spec{BusID: fields[0], Name: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ListError{File: name, Line: lineno + 1, Err: err}
	}

	return specs, nil
}
