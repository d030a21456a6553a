package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

func TestRecordAnswer(t *testing.T) {
	before := testutil.ToFloat64(answersTotal.WithLabelValues("test-model", StatusOK))

	RecordAnswer("test-model", StatusOK, 2*time.Second)

	after := testutil.ToFloat64(answersTotal.WithLabelValues("test-model", StatusOK))
	assert.Equal(t, before+1, after)
}

func TestRecordCitations(t *testing.T) {
	resolved := testutil.ToFloat64(citationsTotal.WithLabelValues("resolved"))
	suppressed := testutil.ToFloat64(citationsTotal.WithLabelValues("suppressed"))
	stops := testutil.ToFloat64(stopSequenceHits)

	RecordCitations(domain.CitationStats{Resolved: 3, SuppressedRepeats: 2, StopSequenceHit: true})

	assert.Equal(t, resolved+3, testutil.ToFloat64(citationsTotal.WithLabelValues("resolved")))
	assert.Equal(t, suppressed+2, testutil.ToFloat64(citationsTotal.WithLabelValues("suppressed")))
	assert.Equal(t, stops+1, testutil.ToFloat64(stopSequenceHits))
}

func TestRecordCitations_NoStop(t *testing.T) {
	stops := testutil.ToFloat64(stopSequenceHits)

	RecordCitations(domain.CitationStats{Resolved: 1})

	assert.Equal(t, stops, testutil.ToFloat64(stopSequenceHits))
}

func TestHistogramsCollect(t *testing.T) {
	RecordFirstToken("m", 300*time.Millisecond)
	RecordContextDocuments(4)
	RecordSearch(domain.SearchModeHybrid, 50*time.Millisecond)
	RecordRateLimitWait(0)

	assert.Positive(t, testutil.CollectAndCount(firstTokenLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(contextDocuments))
	assert.Positive(t, testutil.CollectAndCount(searchDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(rateLimitWait))
}
