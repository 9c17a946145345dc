package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/store"
)

func testMeta() model.PairMetadata {
	return model.PairMetadata{
		Dataset:    "FIFA 18 Dataset",
		Summary:    "sum3",
		Question:   "ques1",
		PairNumber: 4,
		Created:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "evaluations.json"), nil)
}

// completePair records all four categories for pairID.
func completePair(t *testing.T, st *store.Store, pairID string) {
	t.Helper()
	st.GetOrCreate(pairID, testMeta())
	for _, c := range model.Categories() {
		bundle := model.ResponseBundle{Primary: model.ChoiceChartA, ChartA: 5, ChartB: 2}
		if err := st.RecordCategoryResult(pairID, c, bundle); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGateway_SubmitCompletePair(t *testing.T) {
	var requests atomic.Int64
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := newTestStore(t)
	completePair(t, st, "fifa18_rendered_charts_sum3_ques1_pair4")
	gw := New(server.URL, 2*time.Second, "pairlens-test/0.1", st, nil)

	outcome, err := gw.SubmitIfComplete(context.Background(), "fifa18_rendered_charts_sum3_ques1_pair4")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeSent {
		t.Errorf("Expected OutcomeSent, got %s", outcome)
	}
	if requests.Load() != 1 {
		t.Errorf("Expected exactly one POST, got %d", requests.Load())
	}

	if received.PairID != "fifa18_rendered_charts_sum3_ques1_pair4" {
		t.Errorf("Unexpected payload pairId %q", received.PairID)
	}
	if received.Dataset != "FIFA 18 Dataset" {
		t.Errorf("Unexpected payload dataset %q", received.Dataset)
	}
	if received.QuestionSet != "sum3_ques1" {
		t.Errorf("Unexpected payload questionSet %q", received.QuestionSet)
	}
	if received.PairNumber != 4 {
		t.Errorf("Unexpected payload pairNumber %d", received.PairNumber)
	}
	if received.SessionID != gw.SessionID() {
		t.Errorf("Payload sessionId %q does not match gateway session", received.SessionID)
	}
	if len(received.Evaluations) != len(model.Categories()) {
		t.Errorf("Expected %d evaluations in payload, got %d",
			len(model.Categories()), len(received.Evaluations))
	}

	ev, _ := st.Evaluation("fifa18_rendered_charts_sum3_ques1_pair4")
	if !ev.Submitted {
		t.Error("Pair should be marked submitted after a 2xx")
	}
}

func TestGateway_DuplicateSubmissionSuppressed(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := newTestStore(t)
	completePair(t, st, "pair-a")
	gw := New(server.URL, 2*time.Second, "", st, nil)

	if outcome, _ := gw.SubmitIfComplete(context.Background(), "pair-a"); outcome != OutcomeSent {
		t.Fatalf("First attempt: expected sent, got %s", outcome)
	}
	outcome, err := gw.SubmitIfComplete(context.Background(), "pair-a")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeAlreadySubmitted {
		t.Errorf("Second attempt: expected already_submitted, got %s", outcome)
	}
	if requests.Load() != 1 {
		t.Errorf("Duplicate attempt must not re-POST; got %d requests", requests.Load())
	}
}

func TestGateway_FailureRollsBackAndRetries(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := newTestStore(t)
	completePair(t, st, "pair-a")
	gw := New(server.URL, 2*time.Second, "", st, nil)
	ctx := context.Background()

	outcome, err := gw.SubmitIfComplete(ctx, "pair-a")
	if outcome != OutcomeFailed {
		t.Fatalf("Expected failed outcome on 500, got %s", outcome)
	}
	if err == nil {
		t.Fatal("Expected an error on 500")
	}
	ev, _ := st.Evaluation("pair-a")
	if ev.Submitted {
		t.Error("Failed submission must roll the submitted flag back")
	}

	// Endpoint recovers; the next attempt delivers
	fail.Store(false)
	outcome, err = gw.SubmitIfComplete(ctx, "pair-a")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeSent {
		t.Errorf("Retry after recovery: expected sent, got %s", outcome)
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 requests total, got %d", requests.Load())
	}
}

func TestGateway_IncompletePairIsNoOp(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := newTestStore(t)
	st.GetOrCreate("pair-a", testMeta())
	if err := st.RecordCategoryResult("pair-a", model.CategoryClutter,
		model.ResponseBundle{Primary: model.ChoiceChartB, ChartA: 1, ChartB: 7}); err != nil {
		t.Fatal(err)
	}

	gw := New(server.URL, 2*time.Second, "", st, nil)
	outcome, err := gw.SubmitIfComplete(context.Background(), "pair-a")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeNotComplete {
		t.Errorf("Expected not_complete, got %s", outcome)
	}
	if requests.Load() != 0 {
		t.Errorf("Incomplete pair must not POST; got %d requests", requests.Load())
	}
}

func TestGateway_UnreachableEndpointFails(t *testing.T) {
	st := newTestStore(t)
	completePair(t, st, "pair-a")
	gw := New("http://127.0.0.1:1/submit", 500*time.Millisecond, "", st, nil)

	outcome, err := gw.SubmitIfComplete(context.Background(), "pair-a")
	if outcome != OutcomeFailed || err == nil {
		t.Errorf("Expected transport failure, got outcome=%s err=%v", outcome, err)
	}
	ev, _ := st.Evaluation("pair-a")
	if ev.Submitted {
		t.Error("Transport failure must leave the pair retryable")
	}
}

func TestGateway_SubmitPending(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := newTestStore(t)
	completePair(t, st, "pair-a")
	completePair(t, st, "pair-b")
	st.GetOrCreate("pair-incomplete", testMeta())

	gw := New(server.URL, 2*time.Second, "", st, nil)
	ctx := context.Background()

	// pair-b already went out earlier
	if outcome, _ := gw.SubmitIfComplete(ctx, "pair-b"); outcome != OutcomeSent {
		t.Fatalf("Setup submission failed: %s", outcome)
	}

	sent, failed, err := gw.SubmitPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 1 || failed != 0 {
		t.Errorf("Expected sent=1 failed=0, got sent=%d failed=%d", sent, failed)
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 requests total, got %d", requests.Load())
	}
}

func TestGateway_Ping(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := newTestStore(t)
	gw := New(server.URL, 2*time.Second, "pairlens-test/0.1", st, nil)
	if err := gw.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if received.PairID != "connectivity-check" {
		t.Errorf("Expected connectivity-check marker, got %q", received.PairID)
	}
}

func TestGateway_NoEndpointConfigured(t *testing.T) {
	st := newTestStore(t)
	completePair(t, st, "pair-a")
	gw := New("", 2*time.Second, "", st, nil)

	outcome, err := gw.SubmitIfComplete(context.Background(), "pair-a")
	if outcome != OutcomeFailed || err == nil {
		t.Errorf("Expected failure with no endpoint, got outcome=%s err=%v", outcome, err)
	}
}
