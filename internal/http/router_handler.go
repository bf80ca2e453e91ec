package http

import (
	"github.com/gin-gonic/gin"

	"github.com/roguepiratex/solanadeads-fee/internal/adapters/persistence"
	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
	"github.com/roguepiratex/solanadeads-fee/internal/http/httputil"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
)

type RouterHandler struct {
	store      *persistence.Storage
	ledgerSvc  *ledger.Service
	routerConf *config.RouterConfig
}

func NewRouterHandler(store *persistence.Storage, ledgerSvc *ledger.Service, routerConf *config.RouterConfig) *RouterHandler {
	return &RouterHandler{store: store, ledgerSvc: ledgerSvc, routerConf: routerConf}
}

func (h *RouterHandler) Root() string {
	return "/router"
}

func (h *RouterHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/status", h.getStatus)
	admin.POST("/initialize", h.initialize)
}

// InitializeResponse reports the router record created at setup time.
type InitializeResponse struct {
	Mint         string `json:"mint" example:"DEADsWJZaonaiZPFkrqEEBGf43mzA5uHeHpwgy9dW666"`
	Authority    string `json:"authority"`
	Vault        string `json:"vault"`
	AddressNonce uint8  `json:"addressNonce" example:"255"`
}

// StatusResponse is the public view of the router's current state.
type StatusResponse struct {
	Initialized   bool   `json:"initialized"`
	Mint          string `json:"mint"`
	Authority     string `json:"authority,omitempty"`
	Vault         string `json:"vault"`
	VaultBalance  uint64 `json:"vaultBalance"`
	FeeBps        uint16 `json:"feeBps"`
	MaximumFee    uint64 `json:"maximumFee"`
	StakersVault  string `json:"stakersVault"`
	TreasuryOwner string `json:"treasuryOwner"`
	LPOwner       string `json:"lpOwner"`

	RecentHarvests      []*domain.HarvestRun      `json:"recentHarvests"`
	RecentDistributions []*domain.FeeDistribution `json:"recentDistributions"`
}

// @Summary Initialize the fee router
// @Description Create the persistent router record binding the operator authority
// @Description to the configured mint. The record is created exactly once; a second
// @Description call returns 409 without touching the stored state.
// @Tags router
// @Produce json
// @Success 200 {object} InitializeResponse "Router record created"
// @Failure 409 {object} httputil.Response "Router already initialized"
// @Failure 500 {object} httputil.Response "Storage failure"
// @Router /api/v1/admin/router/initialize [post]
func (h *RouterHandler) initialize(c *gin.Context) {
	existing, err := h.store.LoadRouterState(h.routerConf.Mint)
	if err != nil {
		httputil.InternalError(c, "failed to read router state: "+err.Error())
		return
	}
	if existing != nil {
		httputil.Conflict(c, "router already initialized for mint "+h.routerConf.Mint.String())
		return
	}

	state := &domain.RouterState{
		AddressNonce: h.ledgerSvc.VaultBump(),
		Authority:    h.ledgerSvc.Authority(),
	}
	if err := h.store.SaveRouterState(h.routerConf.Mint, state); err != nil {
		httputil.InternalError(c, "failed to persist router state: "+err.Error())
		return
	}

	httputil.Success(c, InitializeResponse{
		Mint:         h.routerConf.Mint.String(),
		Authority:    state.Authority.String(),
		Vault:        h.ledgerSvc.Vault().String(),
		AddressNonce: state.AddressNonce,
	})
}

// @Summary Router status
// @Description Current router state: vault balance, the mint's active transfer-fee
// @Description schedule and the most recent harvest and distribution journal entries.
// @Tags router
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 500 {object} httputil.Response "RPC or storage failure"
// @Router /api/v1/router/status [get]
func (h *RouterHandler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()

	resp := StatusResponse{
		Mint:          h.routerConf.Mint.String(),
		Vault:         h.ledgerSvc.Vault().String(),
		StakersVault:  h.routerConf.StakersVault.String(),
		TreasuryOwner: h.routerConf.TreasuryOwner.String(),
		LPOwner:       h.routerConf.LPOwner.String(),
	}

	state, err := h.store.LoadRouterState(h.routerConf.Mint)
	if err != nil {
		httputil.InternalError(c, "failed to read router state: "+err.Error())
		return
	}
	if state != nil {
		resp.Initialized = true
		resp.Authority = state.Authority.String()
	}

	balance, err := h.ledgerSvc.VaultBalance(ctx)
	if err != nil {
		httputil.InternalError(c, "failed to read vault balance: "+err.Error())
		return
	}
	resp.VaultBalance = balance

	fee, err := h.ledgerSvc.FeeSchedule(ctx)
	if err != nil {
		httputil.InternalError(c, "failed to read fee schedule: "+err.Error())
		return
	}
	if fee != nil {
		resp.FeeBps = fee.FeeRateBasisPoints
		resp.MaximumFee = fee.MaximumFee
	}

	if runs, err := h.store.RecentHarvestRuns(10); err == nil {
		resp.RecentHarvests = runs
	}
	if dists, err := h.store.RecentDistributions(10); err == nil {
		resp.RecentDistributions = dists
	}

	httputil.Success(c, resp)
}
