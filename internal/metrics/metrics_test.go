package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGrant(t *testing.T) {
	before := testutil.ToFloat64(karmaGrants.WithLabelValues("review", "ok"))
	pointsBefore := testutil.ToFloat64(karmaPoints.WithLabelValues("review"))

	RecordGrant("review", 25, nil)
	RecordGrant("review", -5, nil)
	RecordGrant("review", 10, errors.New("boom"))

	assert.Equal(t, before+2, testutil.ToFloat64(karmaGrants.WithLabelValues("review", "ok")))
	assert.Equal(t, pointsBefore+25, testutil.ToFloat64(karmaPoints.WithLabelValues("review")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(karmaGrants.WithLabelValues("review", "error")), 1.0)
}

func TestRecordHTTPRequestUnmatchedRoute(t *testing.T) {
	RecordHTTPRequest("GET", "", 404, 3*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")), 1.0)
}
