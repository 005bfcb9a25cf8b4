package sensor

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

// DefaultRoot is where the kernel exposes w1 bus devices.
const DefaultRoot = "/sys/bus/w1/devices"

// SentinelMilliDegrees is the DS18B20 power-on reset value. A conversion
// that reports it has not actually completed and must be discarded.
const SentinelMilliDegrees = 85000

const (
	hwmonDir              = "hwmon"
	hwmonPrefix           = "hwmon"
	inputFile             = "temp1_input"
	milliDegreesPerDegree = 1000.0
)

// Reader reads sensor values from a w1 device tree.
//
// The tree is accessed through an fs.FS rooted at the devices directory,
// normally os.DirFS(DefaultRoot). Tests substitute fstest.MapFS.
//
// Thread Safety: Read is safe for concurrent use if the underlying FS is.
type Reader struct {
	fsys fs.FS
}

// NewReader creates a Reader over the given device tree.
func NewReader(fsys fs.FS) *Reader {
	return &Reader{fsys: fsys}
}

// Read returns the current reading for spec.
//
// It never fails out-of-band: every problem is folded into the returned
// Reading's Status (and Err for StatusError).
func (r *Reader) Read(spec Spec) Reading {
	reading := Reading{Spec: spec, Status: StatusAbsent}

	if !validBusID(spec.BusID) {
		reading.Status = StatusError
		reading.Err = fmt.Errorf("%w: %q", ErrInvalidBusID, spec.BusID)
		return reading
	}

	input, found, err := r.locate(spec.BusID)
	if err != nil {
		reading.Status = StatusError
		reading.Err = fmt.Errorf("%w: %w", ErrRead, err)
		return reading
	}
	if !found {
		return reading
	}

	data, err := fs.ReadFile(r.fsys, input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Device went away between lookup and read.
			return reading
		}
		reading.Status = StatusError
		reading.Err = fmt.Errorf("%w: %w", ErrRead, err)
		return reading
	}

	raw, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		reading.Status = StatusError
		reading.Err = fmt.Errorf("%w: parsing %s: %w", ErrRead, input, err)
		return reading
	}
	reading.Raw = raw

	if raw == SentinelMilliDegrees {
		reading.Status = StatusSentinel
		return reading
	}

	reading.Status = StatusOK
	reading.Value = float64(raw) / milliDegreesPerDegree
	return reading
}

// locate resolves <busID>/hwmon/hwmon*/temp1_input. found is false when any
// element of the path does not exist yet; err is set only for unexpected
// failures.
func (r *Reader) locate(busID string) (input string, found bool, err error) {
	dir := path.Join(busID, hwmonDir)
	if ok, err := r.isDir(dir); !ok || err != nil {
		return "", false, err
	}

	entries, err := fs.ReadDir(r.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}

	// ReadDir returns entries sorted by name, so the choice is stable.
	var chip string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), hwmonPrefix) {
			chip = e.Name()
			break
		}
	}
	if chip == "" {
		return "", false, nil
	}

	chipDir := path.Join(dir, chip)
	if ok, err := r.isDir(chipDir); !ok || err != nil {
		return "", false, err
	}

	input = path.Join(chipDir, inputFile)
	info, err := fs.Stat(r.fsys, input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	if !info.Mode().IsRegular() {
		return "", false, nil
	}

	return input, true, nil
}

func (r *Reader) isDir(name string) (bool, error) {
	info, err := fs.Stat(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// validBusID reports whether id names exactly one directory below the root.
func validBusID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return fs.ValidPath(id) && !strings.Contains(id, "/")
}
