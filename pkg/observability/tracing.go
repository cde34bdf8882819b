package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray subsegments around named units of work. In Lambda
// the parent segment comes from the runtime; elsewhere capture simply
// runs the wrapped function.
type Tracer struct {
	serviceName string
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string) *Tracer {
	return &Tracer{
		serviceName: serviceName,
	}
}

// Capture runs fn inside a subsegment named after the service
func (t *Tracer) Capture(ctx context.Context, name string, fn func(context.Context) error) error {
	return xray.Capture(ctx, t.serviceName+"."+name, fn)
}

// AddMetadata adds metadata to the current segment
func (t *Tracer) AddMetadata(ctx context.Context, key string, value any) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddMetadata(key, value)
	}
}
