package http

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"lsmdb/pkg/coverage"
	"lsmdb/pkg/types"
)

// fakeCoverageRing is a minimal single-node RingView for handler tests.
type fakeCoverageRing struct {
	p    int
	node types.NodeID
}

func (r fakeCoverageRing) NumPartitions() int { return r.p }

func (r fakeCoverageRing) ToList() []coverage.VnodeOwner {
	inc := coverage.RingIncrement(r.p)
	out := make([]coverage.VnodeOwner, r.p)
	for i := 0; i < r.p; i++ {
		out[i] = coverage.VnodeOwner{
			HashIndex: new(big.Int).Mul(big.NewInt(int64(i)), inc),
			Node:      r.node,
		}
	}
	return out
}

func (r fakeCoverageRing) ResponsiblePosition(hash *big.Int) int {
	return coverage.PartitionOf(hash, r.p)
}

func (r fakeCoverageRing) IndexOwner(hashIndex *big.Int) (types.NodeID, bool) {
	return r.node, true
}

// fakeOracle reports a fixed set of down vnode IDs as offline.
type fakeOracle struct {
	downVnodes map[int]bool
}

func (o fakeOracle) OfflineOwners(service string, ring coverage.RingView) ([]coverage.VnodeOwner, error) {
	if len(o.downVnodes) == 0 {
		return nil, nil
	}
	inc := coverage.RingIncrement(ring.NumPartitions())
	var down []coverage.VnodeOwner
	for v := range o.downVnodes {
		down = append(down, coverage.VnodeOwner{
			HashIndex: new(big.Int).Mul(big.NewInt(int64(v)), inc),
		})
	}
	return down, nil
}

func newCoverageTestServer(oracle coverage.AvailabilityOracle) *Server {
	s := NewServer(nil, "")
	ring := fakeCoverageRing{p: 8, node: "node1"}
	s.SetCoverage(NewCoverageEndpoint(ring, oracle, coverage.VnodeOwner{Node: "node1"}))
	return s
}

func TestHandleCoveragePlan_HappyPath(t *testing.T) {
	s := newCoverageTestServer(fakeOracle{})

	req := httptest.NewRequest(http.MethodGet, "/api/coverage/plan?n=3&pvc=1&req_id=1234&service=kv", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var plan planResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if plan.Kind != "traditional" || len(plan.Vnodes) != 3 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestHandleCoveragePlan_SubpartitionMode(t *testing.T) {
	s := newCoverageTestServer(fakeOracle{})

	req := httptest.NewRequest(http.MethodGet, "/api/coverage/plan?t=64&ring_size=8", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var plan planResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if plan.Kind != "subpartition" || len(plan.Subpartitions) != 64 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestHandleCoveragePlan_InvalidN(t *testing.T) {
	s := newCoverageTestServer(fakeOracle{})

	req := httptest.NewRequest(http.MethodGet, "/api/coverage/plan?n=not-a-number", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if resp := decodeResp(t, rr); resp.Status != StatusError {
		t.Fatalf("expected error status, got %s", resp.Status)
	}
}

func TestHandleCoveragePlan_MissingN(t *testing.T) {
	s := newCoverageTestServer(fakeOracle{})

	req := httptest.NewRequest(http.MethodGet, "/api/coverage/plan", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHandleCoveragePlan_AllUpPartial(t *testing.T) {
	// N exceeds the single node's replicable vnodes the oracle leaves up,
	// so a plain SelectAll would fail; all_up should return a partial plan.
	down := map[int]bool{}
	for v := 0; v < 6; v++ {
		down[v] = true
	}
	s := newCoverageTestServer(fakeOracle{downVnodes: down})

	req := httptest.NewRequest(http.MethodGet, "/api/coverage/plan?n=3&pvc=1&all_up=true", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var plan planResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !plan.Partial {
		t.Fatalf("expected a partial plan, got %+v", plan)
	}
}

func TestHandleCoveragePlan_NotConfigured(t *testing.T) {
	s := NewServer(nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/coverage/plan?n=3", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 (route not registered), got %d", rr.Code)
	}
}
