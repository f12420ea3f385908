package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()
	r.LeadSaved("contact")
	r.LeadSaved("contact")
	r.Rejected("oa-inquiry", "invalid_input")
	r.MailDispatched(false)

	if got := testutil.ToFloat64(r.leadsSaved.WithLabelValues("contact")); got != 2 {
		t.Errorf("expected 2 saved leads, got %v", got)
	}
	if got := testutil.ToFloat64(r.rejected.WithLabelValues("oa-inquiry", "invalid_input")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(r.mail.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected 1 failed dispatch, got %v", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.MailDispatched(true)

	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `leadform_mail_dispatch_total{outcome="sent"} 1`) {
		t.Fatalf("expected mail counter in exposition, got:\n%s", body)
	}
}
