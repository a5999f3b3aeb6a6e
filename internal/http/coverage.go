package http

import (
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"lsmdb/pkg/coverage"
)

// coverageEndpoint holds the collaborators CreatePlan needs: a ring
// snapshot and an availability oracle, plus the identity of the local
// node for replay requests.
type coverageEndpoint struct {
	ring      coverage.RingView
	oracle    coverage.AvailabilityOracle
	localNode coverage.VnodeOwner
}

// NewCoverageEndpoint wires a coverage-plan endpoint against ring and
// oracle. localNode identifies this node for replay requests, which
// are always routed locally regardless of the original owner.
func NewCoverageEndpoint(ring coverage.RingView, oracle coverage.AvailabilityOracle, localNode coverage.VnodeOwner) *coverageEndpoint {
	return &coverageEndpoint{ring: ring, oracle: oracle, localNode: localNode}
}

// handleCoveragePlan serves GET /api/coverage/plan. Query parameters:
//
//	n          - replication factor (normal mode)
//	pvc        - number of PVC passes, default 1
//	req_id     - request id used for rotation/tie-breaking, default 0
//	service    - availability-oracle service name
//	all_up     - if "true", use SelectAllUp instead of SelectAll
//	t          - subpartition count; presence switches to subpartition mode
//	ring_size  - P, required in subpartition mode
func (s *Server) handleCoveragePlan(w http.ResponseWriter, r *http.Request) {
	if s.coverage == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, NewErrorResponse("coverage planner not configured"))
		return
	}

	// correlation id for this request's log lines only — unrelated to
	// coverage.Request.ReqID, which is the caller-supplied fairness seed.
	corrID := uuid.New()

	q := r.URL.Query()
	req := coverage.Request{
		Service: q.Get("service"),
	}

	if reqID := q.Get("req_id"); reqID != "" {
		v, err := strconv.ParseUint(reqID, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid req_id"))
			return
		}
		req.ReqID = v
	}

	req.PVC = 1
	if pvc := q.Get("pvc"); pvc != "" {
		v, err := strconv.Atoi(pvc)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid pvc"))
			return
		}
		req.PVC = v
	}

	req.Target.Sentinel = coverage.SelectAll
	if q.Get("all_up") == "true" {
		req.Target.Sentinel = coverage.SelectAllUp
	}

	if t := q.Get("t"); t != "" {
		tv, err := strconv.Atoi(t)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid t"))
			return
		}
		ringSize, err := strconv.Atoi(q.Get("ring_size"))
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid ring_size"))
			return
		}
		req.NVal = coverage.NValSpec{T: tv, RingSize: ringSize, Subparts: true}
	} else {
		n, err := strconv.Atoi(q.Get("n"))
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid or missing n"))
			return
		}
		req.NVal = coverage.NValSpec{N: n}
	}

	plan, err := coverage.CreatePlan(req, s.coverage.ring, s.coverage.oracle, s.coverage.localNode)
	if err != nil {
		slog.Warn("coverage plan failed", "corr_id", corrID, "error", err)
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	s.writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

// planResponse mirrors coverage.Plan with plain-decimal hash fields so
// it serializes without leaning on big.Int's own JSON encoding rules.
type planResponse struct {
	Kind          string            `json:"kind"`
	Vnodes        []vnodeResponse   `json:"vnodes,omitempty"`
	Filters       []filterResponse  `json:"filters,omitempty"`
	Subpartitions []subpartResponse `json:"subpartitions,omitempty"`
	Partial       bool              `json:"partial"`
}

type vnodeResponse struct {
	HashIndex string `json:"hash_index"`
	Node      string `json:"node"`
}

type filterResponse struct {
	HashIndex  string   `json:"hash_index"`
	Boundaries []string `json:"boundaries"`
}

type subpartResponse struct {
	HashIndex      string `json:"hash_index"`
	Node           string `json:"node"`
	SubpartitionID int    `json:"subpartition_id"`
	BitShift       int    `json:"bit_shift"`
}

func toPlanResponse(p coverage.Plan) planResponse {
	out := planResponse{Partial: p.Partial}
	switch p.Kind {
	case coverage.PlanSubpartition:
		out.Kind = "subpartition"
	case coverage.PlanReplay:
		out.Kind = "replay"
	default:
		out.Kind = "traditional"
	}

	for _, v := range p.Vnodes {
		out.Vnodes = append(out.Vnodes, vnodeResponse{
			HashIndex: bigString(v.HashIndex),
			Node:      string(v.Node),
		})
	}
	for _, f := range p.Filters {
		bounds := make([]string, len(f.Boundaries))
		for i, b := range f.Boundaries {
			bounds[i] = bigString(b)
		}
		out.Filters = append(out.Filters, filterResponse{
			HashIndex:  bigString(f.HashIndex),
			Boundaries: bounds,
		})
	}
	for _, sp := range p.Subpartitions {
		out.Subpartitions = append(out.Subpartitions, subpartResponse{
			HashIndex:      bigString(sp.HashIndex),
			Node:           string(sp.Node),
			SubpartitionID: sp.SubpartitionID,
			BitShift:       sp.BitShift,
		})
	}
	return out
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
