// Package splitmath implements the fee-split and gross-up arithmetic. All
// intermediate math runs on uint256 so no u64 input can overflow before the
// final narrowing.
package splitmath

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
)

var ErrMathOverflow = errors.New("math overflow while computing splits")

var (
	u256BpsDenom    = uint256.NewInt(common.BpsDenominator)
	u256StakersBps  = uint256.NewInt(uint64(common.StakersBps))
	u256TreasuryBps = uint256.NewInt(uint64(common.TreasuryBps))
)

// ComputeSplits divides amount into the stakers / treasury / LP shares.
// Stakers and treasury are floored basis-point products; the LP share takes
// the remainder, so the triple always sums exactly to amount.
func ComputeSplits(amount uint64) (domain.SplitTargets, error) {
	a := uint256.NewInt(amount)

	stakers := new(uint256.Int).Mul(a, u256StakersBps)
	stakers.Div(stakers, u256BpsDenom)

	treasury := new(uint256.Int).Mul(a, u256TreasuryBps)
	treasury.Div(treasury, u256BpsDenom)

	lp := new(uint256.Int).Sub(a, stakers)
	lp.Sub(lp, treasury)

	// Unreachable for u64 inputs; the narrowing check keeps the contract
	// explicit.
	if !stakers.IsUint64() || !treasury.IsUint64() || !lp.IsUint64() {
		return domain.SplitTargets{}, ErrMathOverflow
	}

	return domain.SplitTargets{
		Stakers:       stakers.Uint64(),
		Treasury:      treasury.Uint64(),
		LiquidityPool: lp.Uint64(),
	}, nil
}

// GrossUp returns the gross amount to transfer so that, after the mint
// deducts its transfer fee, the recipient nets targetNet.
//
// The uncapped gross is ceil(net·10000 / (10000−bps)). If the fee that
// amount would incur stays under maxFee the cap never engages and the
// uncapped gross is exact. Otherwise the deducted fee saturates at maxFee
// regardless of gross size, so the gross is simply net+maxFee.
func GrossUp(targetNet uint64, feeBps uint16, maxFee uint64) (uint64, error) {
	if targetNet == 0 {
		return 0, nil
	}
	if uint64(feeBps) >= common.BpsDenominator {
		// Callers bypass gross-up for rates >= 100%; a non-positive
		// denominator here is a contract violation.
		return 0, ErrMathOverflow
	}

	net := uint256.NewInt(targetNet)
	rate := uint256.NewInt(uint64(feeBps))
	denomMinus := new(uint256.Int).Sub(u256BpsDenom, rate)

	grossUncapped := new(uint256.Int).Mul(net, u256BpsDenom)
	ceilDiv(grossUncapped, denomMinus)

	feeUncapped := new(uint256.Int).Mul(grossUncapped, rate)
	feeUncapped.Div(feeUncapped, u256BpsDenom)

	if feeUncapped.CmpUint64(maxFee) <= 0 {
		if !grossUncapped.IsUint64() {
			return 0, ErrMathOverflow
		}
		return grossUncapped.Uint64(), nil
	}

	grossCapped := new(uint256.Int).AddUint64(net, maxFee)
	if !grossCapped.IsUint64() {
		return 0, ErrMathOverflow
	}
	return grossCapped.Uint64(), nil
}

// GrossUpSplits applies GrossUp to each share. With no fee schedule, or a
// rate at or above 100% (where gross-up is undefined), the targets pass
// through unchanged.
func GrossUpSplits(targets domain.SplitTargets, fee *domain.FeeParameters) (domain.SplitTargets, error) {
	if fee == nil || uint64(fee.FeeRateBasisPoints) >= common.BpsDenominator {
		return targets, nil
	}

	stakers, err := GrossUp(targets.Stakers, fee.FeeRateBasisPoints, fee.MaximumFee)
	if err != nil {
		return domain.SplitTargets{}, err
	}
	treasury, err := GrossUp(targets.Treasury, fee.FeeRateBasisPoints, fee.MaximumFee)
	if err != nil {
		return domain.SplitTargets{}, err
	}
	lp, err := GrossUp(targets.LiquidityPool, fee.FeeRateBasisPoints, fee.MaximumFee)
	if err != nil {
		return domain.SplitTargets{}, err
	}

	return domain.SplitTargets{Stakers: stakers, Treasury: treasury, LiquidityPool: lp}, nil
}

// ceilDiv sets n = ceil(n/d) for positive d.
func ceilDiv(n, d *uint256.Int) {
	n.Add(n, d)
	n.SubUint64(n, 1)
	n.Div(n, d)
}
