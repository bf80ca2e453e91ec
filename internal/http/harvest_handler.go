package http

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/roguepiratex/solanadeads-fee/internal/domain"
	"github.com/roguepiratex/solanadeads-fee/internal/http/httputil"
	"github.com/roguepiratex/solanadeads-fee/internal/services/distributor"
	"github.com/roguepiratex/solanadeads-fee/internal/services/harvester"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
)

// maxHarvestSources caps one request at the account count a single harvest
// transaction can carry.
const maxHarvestSources = 20

type HarvestHandler struct {
	harvesterSvc   *harvester.Orchestrator
	distributorSvc *distributor.Engine
}

func NewHarvestHandler(h *harvester.Orchestrator, d *distributor.Engine) *HarvestHandler {
	return &HarvestHandler{harvesterSvc: h, distributorSvc: d}
}

func (h *HarvestHandler) Root() string {
	return "/fees"
}

func (h *HarvestHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.POST("/harvest", h.harvest)
	private.POST("/distribute", h.distribute)
}

// HarvestRequest lists the token accounts whose withheld fees should be swept.
type HarvestRequest struct {
	// Token account addresses holding withheld fees for the routed mint.
	// An empty list is a no-op and succeeds immediately.
	Sources []string `json:"sources" example:"2SHAd87yA84UKPvfheoNEVkGLNHF4KyXiLwHaxDE888d"`
}

// DistributeRequest triggers a standalone split of an amount already sitting
// in the routing vault.
type DistributeRequest struct {
	// Amount in base units to split across the three sinks.
	Amount uint64 `json:"amount" binding:"required" example:"1000000"`

	// Decimals of the routed mint, echoed into the transfer instructions.
	Decimals uint8 `json:"decimals" example:"6"`
}

// @Summary Harvest and distribute withheld fees
// @Description Sweep withheld transfer fees from the given token accounts into the
// @Description mint, withdraw them into the routing vault and distribute the vault
// @Description balance 65/17.5/17.5 across stakers, treasury and the liquidity pool.
// @Description Balances below the distribution minimum are left in the vault for the
// @Description next run.
// @Tags fees
// @Accept json
// @Produce json
// @Param request body HarvestRequest true "Source token accounts"
// @Success 200 {object} domain.HarvestRun "Harvest outcome with before/after vault balances"
// @Failure 400 {object} httputil.Response "Invalid source account"
// @Failure 409 {object} httputil.Response "Router not initialized"
// @Failure 500 {object} httputil.Response "RPC or transaction failure"
// @Router /api/v1/fees/harvest [post]
func (h *HarvestHandler) harvest(c *gin.Context) {
	var req HarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Sources) > maxHarvestSources {
		httputil.BadRequest(c, "too many sources: one run sweeps at most 20 accounts")
		return
	}

	sources := make([]solana.PublicKey, 0, len(req.Sources))
	for _, s := range req.Sources {
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			httputil.BadRequest(c, "invalid source address: "+s)
			return
		}
		sources = append(sources, pk)
	}

	run, err := h.harvesterSvc.HarvestAndDistribute(c.Request.Context(), sources)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if run == nil {
		run = &domain.HarvestRun{}
	}

	httputil.Success(c, run)
}

// @Summary Distribute a vault amount
// @Description Split an amount already held by the routing vault across the three
// @Description sinks without harvesting first. Transfer fees on the routed mint are
// @Description grossed up so each sink receives its intended net share.
// @Tags fees
// @Accept json
// @Produce json
// @Param request body DistributeRequest true "Amount and mint decimals"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response "Amount below minimum or over vault balance"
// @Failure 409 {object} httputil.Response "Router not initialized"
// @Failure 500 {object} httputil.Response "RPC or transaction failure"
// @Router /api/v1/fees/distribute [post]
func (h *HarvestHandler) distribute(c *gin.Context) {
	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.distributorSvc.DistributeAmount(c.Request.Context(), req.Amount, req.Decimals); err != nil {
		h.writeError(c, err)
		return
	}

	httputil.Success(c, gin.H{"amount": req.Amount})
}

func (h *HarvestHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, distributor.ErrZeroAmount),
		errors.Is(err, distributor.ErrInsufficientVaultBalance),
		errors.Is(err, distributor.ErrMathOverflow),
		errors.Is(err, harvester.ErrInvalidMintForSink),
		errors.Is(err, harvester.ErrWrongTokenProgramForSink):
		httputil.BadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrNotInitialized),
		errors.Is(err, ledger.ErrAuthorityMismatch):
		httputil.Conflict(c, err.Error())
	default:
		httputil.InternalError(c, err.Error())
	}
}
