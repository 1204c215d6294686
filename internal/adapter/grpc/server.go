package grpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/character"
	"github.com/simaogato/wealthsim-backend/internal/usecase/dashboard"
	"github.com/simaogato/wealthsim-backend/internal/usecase/gametime"
	"github.com/simaogato/wealthsim-backend/internal/usecase/journal"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ledger"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ownership"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
	"github.com/simaogato/wealthsim-backend/internal/usecase/reset"
)

// Resetter runs the complete reset
type Resetter interface {
	PerformCompleteReset(ctx context.Context) reset.Report
}

// Server implements the AssetService gRPC server
type Server struct {
	Ledger    *ledger.Ledger
	Character *character.Facade
	Ownership *ownership.Registry
	Refresh   *refresh.Coordinator
	Dashboard *dashboard.DashboardService
	Reset     Resetter
	Clock     *gametime.Clock
	Journal   *journal.Journal

	log *slog.Logger
}

var _ AssetServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	ledgerService *ledger.Ledger,
	characterFacade *character.Facade,
	ownershipRegistry *ownership.Registry,
	coordinator *refresh.Coordinator,
	dashboardService *dashboard.DashboardService,
	resetter Resetter,
	clock *gametime.Clock,
	events *journal.Journal,
) *Server {
	return &Server{
		Ledger:    ledgerService,
		Character: characterFacade,
		Ownership: ownershipRegistry,
		Refresh:   coordinator,
		Dashboard: dashboardService,
		Reset:     resetter,
		Clock:     clock,
		Journal:   events,
		log:       slog.Default().With("component", "grpc"),
	}
}

type recordRequest struct {
	Category string          `json:"category"`
	ID       string          `json:"id"`
	Record   json.RawMessage `json:"record"`
	Fields   ledger.Fields   `json:"fields"`
}

type priceRequest struct {
	ID       string          `json:"id"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type cashRequest struct {
	Delta decimal.Decimal `json:"delta"`
	Value decimal.Decimal `json:"value"`
}

type refreshRequest struct {
	Source string `json:"source"`
	View   string `json:"view"`
	Force  bool   `json:"force"`
}

type refreshResponse struct {
	Status    refresh.Status            `json:"status"`
	Reason    string                    `json:"reason,omitempty"`
	Corrected bool                      `json:"corrected"`
	Snapshot  *domain.AggregateSnapshot `json:"snapshot,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// AddRecord handles the AddRecord RPC
func (s *Server) AddRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req recordRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	// Build the domain record from the category payload
	record, err := decodeRecord(req.Category, req.Record)
	if domain.Coerced(record, err) {
		s.log.Warn("invalid record fields coerced to zero", "category", req.Category, "err", err)
	} else if err != nil {
		return nil, mapError(err)
	}

	id, err := s.Ledger.AddRecord(ctx, record)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]string{"id": id})
}

// UpdateRecord handles the UpdateRecord RPC
func (s *Server) UpdateRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req recordRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return nil, mapError(err)
	}
	if len(req.Fields) == 0 {
		return nil, status.Errorf(codes.InvalidArgument, "fields must not be empty")
	}

	if err := s.Ledger.UpdateRecord(ctx, category, req.ID, req.Fields); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// RemoveRecord handles the RemoveRecord RPC
func (s *Server) RemoveRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req recordRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return nil, mapError(err)
	}

	if err := s.Ledger.RemoveRecord(ctx, category, req.ID); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// UpdateStockPrice handles the UpdateStockPrice RPC
func (s *Server) UpdateStockPrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req priceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := s.Ledger.UpdateStockPrice(ctx, req.ID, req.Quantity, req.Price); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// UpdateCryptoPrice handles the UpdateCryptoPrice RPC
func (s *Server) UpdateCryptoPrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req priceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := s.Ledger.UpdateCryptoPrice(ctx, req.ID, req.Quantity, req.Price); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// UpdateCash handles the UpdateCash RPC
func (s *Server) UpdateCash(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req cashRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	wealth := s.Character.UpdateCash(ctx, req.Delta)
	return encode(map[string]decimal.Decimal{"wealth": wealth})
}

// SetWealth handles the SetWealth RPC
func (s *Server) SetWealth(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req cashRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	s.Character.SetWealth(ctx, req.Value)
	return encode(map[string]decimal.Decimal{"wealth": s.Character.Wealth()})
}

// GetNetWorthBreakdown handles the GetNetWorthBreakdown RPC
func (s *Server) GetNetWorthBreakdown(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encode(s.Ledger.NetWorthBreakdown())
}

// GetAssetPrice handles the GetAssetPrice RPC
// An unknown id answers a zero price
func (s *Server) GetAssetPrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req priceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Errorf(codes.InvalidArgument, "id is required")
	}
	price := s.Ledger.AssetPrice(ctx, req.ID)
	return encode(map[string]any{"id": req.ID, "price": price})
}

// GetOwnershipBreakdown handles the GetOwnershipBreakdown RPC
func (s *Server) GetOwnershipBreakdown(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encode(s.Ownership.OwnershipBreakdown(ctx))
}

// TriggerRefresh handles the TriggerRefresh RPC
func (s *Server) TriggerRefresh(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req refreshRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.Source == "" {
		req.Source = "grpc"
	}

	res := s.Refresh.TriggerRefresh(ctx, refresh.Request{Source: req.Source, View: req.View, Force: req.Force})

	out := refreshResponse{Status: res.Status, Reason: res.Reason, Corrected: res.Corrected}
	if res.Status == refresh.StatusCompleted {
		out.Snapshot = &res.Snapshot
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return encode(out)
}

// GetRefreshState handles the GetRefreshState RPC
func (s *Server) GetRefreshState(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encode(s.Refresh.State())
}

// PerformCompleteReset handles the PerformCompleteReset RPC
func (s *Server) PerformCompleteReset(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encode(s.Reset.PerformCompleteReset(ctx))
}

// GetDashboard handles the GetDashboard RPC
func (s *Server) GetDashboard(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.Dashboard.GetDashboard(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(result)
}

// AdvanceTime handles the AdvanceTime RPC
func (s *Server) AdvanceTime(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		Days int `json:"days"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.Days <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "days must be positive")
	}

	day, err := s.Clock.Advance(ctx, req.Days)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"day": day, "date": s.Clock.Date().Format(time.DateOnly)})
}

// ListEvents handles the ListEvents RPC
func (s *Server) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must be non-negative")
	}
	return encode(map[string]any{"events": s.Journal.Recent(req.Limit)})
}
