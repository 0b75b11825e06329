package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookings.WithLabelValues(BookingCreated))
	IncBooking(BookingCreated)
	assert.Equal(t, before+1, testutil.ToFloat64(bookings.WithLabelValues(BookingCreated)))

	beforeCancel := testutil.ToFloat64(cancellations)
	IncCancellation()
	assert.Equal(t, beforeCancel+1, testutil.ToFloat64(cancellations))

	assert.NotPanics(t, func() {
		ObserveHTTP("/rooms", http.MethodGet, http.StatusOK, 15*time.Millisecond)
		IncSync(SyncResultRetry)
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("/rooms", http.MethodGet, "200")))
}
