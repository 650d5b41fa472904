package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestToggle(t *testing.T) {
	before := testutil.ToFloat64(EngagementToggles.WithLabelValues("like", "added"))
	Toggle("like", true)
	assert.Equal(t, before+1, testutil.ToFloat64(EngagementToggles.WithLabelValues("like", "added")))

	before = testutil.ToFloat64(EngagementToggles.WithLabelValues("favorite", "removed"))
	Toggle("favorite", false)
	assert.Equal(t, before+1, testutil.ToFloat64(EngagementToggles.WithLabelValues("favorite", "removed")))
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "unmatched", "404"))
	ObserveRequest("GET", "", 404, time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
