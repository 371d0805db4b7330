package sessionkey

import (
	"fmt"
	"math/big"
)

const spentPrefix = "spent."

// Spent returns the cumulative recorded spend for asset, "0" when none.
func (s *Service) Spent(asset string) (string, error) {
	raw, ok, err := s.kv.Get(spentPrefix + asset)
	if err != nil {
		return "", err
	}
	if !ok {
		return "0", nil
	}
	return string(raw), nil
}

// RecordSpend adds amount to the asset's running total. Amount is a decimal
// integer string in the asset's smallest unit.
func (s *Service) RecordSpend(asset, amount string) error {
	add, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return fmt.Errorf("bad spend amount %q", amount)
	}
	prev, err := s.Spent(asset)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(parseDecimal(prev), add)
	return s.kv.Set(spentPrefix+asset, []byte(total.String()))
}

// ResetSpend zeroes the running total for asset, as happens on rotation.
func (s *Service) ResetSpend(asset string) error {
	return s.kv.Delete(spentPrefix + asset)
}
