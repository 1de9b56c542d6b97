package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/issuer"
	"github.com/mynextid/zk-age/models"
	"github.com/mynextid/zk-age/protocol"
	"github.com/mynextid/zk-age/solidity"
	"golang.org/x/sync/semaphore"
)

// Server handles HTTP requests for ZK proof operations
type Server struct {
	registry   *CircuitRegistry
	issuer     *issuer.Issuer
	ledgerPath string
	proofs     *semaphore.Weighted
	logger     *slog.Logger
}

// Options configures the optional parts of a Server
type Options struct {
	// Issuer enables the /issuer endpoints when set
	Issuer *issuer.Issuer
	// LedgerPath, if set, receives the ledger after every issuance
	LedgerPath string
	// MaxConcurrentProofs bounds parallel proof generation, default 1
	MaxConcurrentProofs int64
	Logger              *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(registry *CircuitRegistry, opts Options) *Server {
	if opts.MaxConcurrentProofs < 1 {
		opts.MaxConcurrentProofs = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		registry:   registry,
		issuer:     opts.Issuer,
		ledgerPath: opts.LedgerPath,
		proofs:     semaphore.NewWeighted(opts.MaxConcurrentProofs),
		logger:     opts.Logger,
	}
}

// ==== Request/Response Types ====

// ProveRequest represents a proof generation request. Commitments may be
// omitted when the service runs the issuer, in which case its complete
// ledger is used.
type ProveRequest struct {
	CutoffYear  uint64              `json:"cutoff_year"`
	Commitments []models.Commitment `json:"commitments,omitempty"`
	Credential  models.Credential   `json:"credential"`
}

// ProveResponse represents a proof generation response
type ProveResponse struct {
	Shape      string             `json:"shape"`
	CutoffYear uint64             `json:"cutoff_year"`
	Proof      string             `json:"proof"` // base64 encoded
	Calldata   *solidity.Calldata `json:"calldata,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// VerifyRequest represents a proof verification request
type VerifyRequest struct {
	CutoffYear *uint64 `json:"cutoff_year"`
	Proof      string  `json:"proof"` // base64 encoded
}

// VerifyResponse represents a proof verification response
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ShapeInfoResponse represents a loaded circuit shape
type ShapeInfoResponse struct {
	models.CircuitInfo
	CanProve bool `json:"can_prove"`
}

// ShapeListResponse represents a list of shapes
type ShapeListResponse struct {
	Shapes []ShapeInfoResponse `json:"shapes"`
	Count  int                 `json:"count"`
}

// VerifyingKeyResponse carries a verifying key in gnark's binary encoding
// and as the word sequence of the on-chain verifier
type VerifyingKeyResponse struct {
	Shape           string   `json:"shape"`
	Fingerprint     string   `json:"fingerprint"`
	Key             string   `json:"key"` // base64 encoded
	Words           []string `json:"words"`
	CommitmentWords []string `json:"commitment_words,omitempty"`
}

// IssueRequest asks the issuer for a new credential
type IssueRequest struct {
	HolderName string `json:"holder_name"`
	DobYear    string `json:"dob_year"`
}

// IssueResponse returns the credential to its holder
type IssueResponse struct {
	Credential models.Credential `json:"credential"`
	Commitment models.Commitment `json:"commitment"`
	Index      int               `json:"index"`
	Remaining  int               `json:"remaining"`
}

// CommitmentsResponse is the issuer's published commitment array
type CommitmentsResponse struct {
	Capacity    int                 `json:"capacity"`
	Count       int                 `json:"count"`
	Complete    bool                `json:"complete"`
	Commitments []models.Commitment `json:"commitments"`
}

// ==== Handlers ====

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"shapes": len(s.registry.List()),
		"issuer": s.issuer != nil,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HandleListShapes lists all loaded shapes
func (s *Server) HandleListShapes(w http.ResponseWriter, r *http.Request) {
	shapes := make([]ShapeInfoResponse, 0)
	for _, name := range s.registry.List() {
		c, err := s.registry.Circuit(name)
		if err != nil {
			continue
		}
		shapes = append(shapes, ShapeInfoResponse{CircuitInfo: c.Info, CanProve: c.CanProve()})
	}

	respondJSON(w, http.StatusOK, ShapeListResponse{
		Shapes: shapes,
		Count:  len(shapes),
	})
}

// HandleGetShape gets information about a specific shape
func (s *Server) HandleGetShape(w http.ResponseWriter, r *http.Request) {
	c, ok := s.circuit(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ShapeInfoResponse{CircuitInfo: c.Info, CanProve: c.CanProve()})
}

// HandleVerifyingKey returns the verifying key of a shape
func (s *Server) HandleVerifyingKey(w http.ResponseWriter, r *http.Request) {
	c, ok := s.circuit(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := c.VerifyingKey.VK.WriteTo(&buf); err != nil {
		respondError(w, http.StatusInternalServerError, "encoding_failed",
			fmt.Sprintf("failed to serialize verifying key: %v", err))
		return
	}
	words, err := solidity.EncodeVerifyingKey(c.VerifyingKey.VK)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "encoding_failed",
			fmt.Sprintf("failed to encode verifying key: %v", err))
		return
	}
	commitmentWords, err := solidity.EncodeVerifyingKeyCommitments(c.VerifyingKey.VK)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "encoding_failed",
			fmt.Sprintf("failed to encode verifying key commitments: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, VerifyingKeyResponse{
		Shape:           c.Info.Name,
		Fingerprint:     c.Info.Fingerprint,
		Key:             base64.StdEncoding.EncodeToString(buf.Bytes()),
		Words:           words,
		CommitmentWords: commitmentWords,
	})
}

// HandleProve handles proof generation requests. Pass ?calldata=true to
// receive the on-chain encoding along with the proof. The response is the
// same for eligible and ineligible credentials; only verification tells
// them apart.
func (s *Server) HandleProve(w http.ResponseWriter, r *http.Request) {
	c, ok := s.circuit(w, r)
	if !ok {
		return
	}
	if !c.CanProve() {
		respondError(w, http.StatusServiceUnavailable, "proving_key_not_loaded",
			fmt.Sprintf("shape '%s' is loaded for verification only", c.Info.Name))
		return
	}

	var req ProveRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	withCalldata, _ := strconv.ParseBool(r.URL.Query().Get("calldata"))

	if len(req.Commitments) == 0 {
		if s.issuer == nil {
			respondError(w, http.StatusBadRequest, "missing_input", "commitments are required")
			return
		}
		commitments, err := s.issuer.Ledger().Commitments()
		if err != nil {
			respondError(w, http.StatusConflict, "registry_incomplete", err.Error())
			return
		}
		req.Commitments = commitments
	}

	inst := cae.Instance{
		CutoffYear:  req.CutoffYear,
		Commitments: req.Commitments,
		Credential:  req.Credential,
	}

	if err := s.proofs.Acquire(r.Context(), 1); err != nil {
		respondError(w, http.StatusServiceUnavailable, "prover_busy",
			"request cancelled while waiting for a prover")
		return
	}
	start := time.Now()
	proof, raw, err := c.Prove(inst)
	s.proofs.Release(1)
	if err != nil {
		status, code := proveErrorStatus(err)
		respondError(w, status, code, fmt.Sprintf("failed to generate proof: %v", err))
		return
	}
	s.logger.Debug("proof generated", "shape", c.Info.Name, "took", time.Since(start))

	resp := ProveResponse{
		Shape:      c.Info.Name,
		CutoffYear: req.CutoffYear,
		Proof:      base64.StdEncoding.EncodeToString(raw),
		Timestamp:  time.Now(),
	}
	if withCalldata {
		if resp.Calldata, err = c.Public().Calldata(req.CutoffYear, proof); err != nil {
			respondError(w, http.StatusInternalServerError, "encoding_failed",
				fmt.Sprintf("failed to encode calldata: %v", err))
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleVerify handles proof verification requests
func (s *Server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	c, ok := s.circuit(w, r)
	if !ok {
		return
	}

	var req VerifyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	// Validate inputs
	if req.CutoffYear == nil || req.Proof == "" {
		respondError(w, http.StatusBadRequest, "missing_input",
			"both cutoff_year and proof are required")
		return
	}

	// Decode proof from base64
	proofBytes, err := base64.StdEncoding.DecodeString(req.Proof)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_proof_encoding",
			fmt.Sprintf("failed to decode proof: %v", err))
		return
	}

	valid, err := c.Public().Verify(*req.CutoffYear, proofBytes)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_verification_input", err.Error())
		return
	}

	response := VerifyResponse{
		Valid:     valid,
		Timestamp: time.Now(),
	}
	if valid {
		response.Message = "proof is valid"
	} else {
		response.Message = "proof does not show an eligible credential"
	}
	respondJSON(w, http.StatusOK, response)
}

// HandleIssue issues a credential from the service's ledger
func (s *Server) HandleIssue(w http.ResponseWriter, r *http.Request) {
	if !s.issuerEnabled(w) {
		return
	}

	var req IssueRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.HolderName == "" || req.DobYear == "" {
		respondError(w, http.StatusBadRequest, "missing_input",
			"both holder_name and dob_year are required")
		return
	}

	cred, commitment, err := s.issuer.IssueNew(req.HolderName, req.DobYear)
	switch {
	case errors.Is(err, issuer.ErrMaxCapacityReached):
		respondError(w, http.StatusConflict, "max_capacity_reached", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid_credential", err.Error())
		return
	}

	ledger := s.issuer.Ledger()
	if s.ledgerPath != "" {
		if err := ledger.SaveToFile(s.ledgerPath); err != nil {
			s.logger.Error("failed to persist ledger", "path", s.ledgerPath, "error", err)
		}
	}
	count := ledger.Len()
	s.logger.Info("credential issued", "commitment", commitment.String(), "count", count)

	respondJSON(w, http.StatusCreated, IssueResponse{
		Credential: cred,
		Commitment: commitment,
		Index:      count - 1,
		Remaining:  ledger.Capacity() - count,
	})
}

// HandleCommitments publishes the issuer's commitments
func (s *Server) HandleCommitments(w http.ResponseWriter, r *http.Request) {
	if !s.issuerEnabled(w) {
		return
	}
	ledger := s.issuer.Ledger()
	issued := ledger.Issued()
	respondJSON(w, http.StatusOK, CommitmentsResponse{
		Capacity:    ledger.Capacity(),
		Count:       len(issued),
		Complete:    len(issued) == ledger.Capacity(),
		Commitments: issued,
	})
}

// ==== Helper Functions ====

func (s *Server) circuit(w http.ResponseWriter, r *http.Request) (*Circuit, bool) {
	name := chi.URLParam(r, "shape")
	c, err := s.registry.Circuit(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "shape_not_found",
			fmt.Sprintf("shape '%s' not found", name))
		return nil, false
	}
	return c, true
}

func (s *Server) issuerEnabled(w http.ResponseWriter) bool {
	if s.issuer == nil {
		respondError(w, http.StatusNotFound, "issuer_disabled", "issuer endpoints are disabled")
		return false
	}
	return true
}

func proveErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, cae.ErrShapeMismatch),
		errors.Is(err, cae.ErrYearOutOfRange),
		errors.Is(err, models.ErrInvalidEncoding):
		return http.StatusBadRequest, "invalid_instance"
	case errors.Is(err, protocol.ErrProveFailed):
		return http.StatusInternalServerError, "proof_generation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeRequest parses the JSON body into v, writing the error response
// itself when it fails
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request",
			"failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json",
			fmt.Sprintf("failed to parse request: %v", err))
		return false
	}
	return true
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}
