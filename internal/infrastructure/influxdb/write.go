package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoints writes all points in a single request and waits for the result.
//
// An empty call is a successful no-op.
//
// Returns:
//   - error: ErrNotConnected after Close, or ErrWriteFailed wrapping the
//     transport or server error
func (c *Client) WritePoints(ctx context.Context, points ...*write.Point) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(points) == 0 {
		return nil
	}

	if err := c.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}

// NewFieldsPoint builds a tagless point from float fields.
//
// Example:
//
//	p := influxdb.NewFieldsPoint("onewire",
//	    map[string]float64{"flow": 41.5, "return": 33.0}, now)
func NewFieldsPoint(measurement string, fields map[string]float64, t time.Time) *write.Point {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return write.NewPoint(measurement, nil, values, t)
}
