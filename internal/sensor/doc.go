// Package sensor reads 1-Wire temperature sensors exposed by the kernel.
//
// The w1 bus driver publishes each enumerated device under
// /sys/bus/w1/devices/<bus_id>. Temperature devices carry a hwmon
// subdirectory whose temp1_input file holds the current reading in
// milli-degrees Celsius.
//
// # Sensor list
//
// Sensors are configured in a line-oriented text file:
//
//	# bus id          name
//	28-0000071b1c2d   flow
//	28-0000071b3e4f   return    # trailing fields are ignored
//
// Blank lines and comments are skipped. A line with fewer than two fields
// aborts loading with a *ListError carrying the file name and 1-based line.
//
// # Reading
//
//	r := sensor.NewReader(os.DirFS(sensor.DefaultRoot))
//	reading := r.Read(spec)
//	if reading.OK() {
//	    fmt.Println(reading.Value)
//	}
//
// Read never returns an error out-of-band. A missing device yields
// StatusAbsent, the 85000 power-on value yields StatusSentinel and any
// I/O or parse failure yields StatusError with Reading.Err set.
package sensor
