package promo

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Code is a discount code with a whole-percent discount. Codes are matched
// case-insensitively and an inactive code behaves exactly like an unknown one.
type Code struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discountPercent"`
	Description     string `json:"description,omitempty"`
	IsActive        bool   `json:"isActive"`
}

// Registry resolves promo codes. The set is small and read-mostly; lookups are
// served from an in-memory map that Reload swaps atomically under a lock.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]Code
}

func defaultCodes() []Code {
	return []Code{
		{Code: "ПЕРВЫЙ", DiscountPercent: 20, Description: "Скидка 20% на первый заказ", IsActive: true},
		{Code: "ДРУЗЬЯМ", DiscountPercent: 15, Description: "Скидка 15% по реферальной программе", IsActive: true},
		{Code: "ЛЕТОМ", DiscountPercent: 10, Description: "Летняя скидка 10%", IsActive: true},
	}
}

// NewRegistry builds a registry seeded with the built-in codes. When path is
// non-empty the file replaces the built-in set entirely.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{}
	if path == "" {
		r.swap(defaultCodes())
		return r, nil
	}
	if err := r.ReloadFromFile(path); err != nil {
		return nil, err
	}
	return r, nil
}

// ReloadFromFile replaces the code set from a JSON array on disk. The current
// set stays live if the file cannot be read or parsed.
func (r *Registry) ReloadFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read promo file: %w", err)
	}
	var codes []Code
	if err := json.Unmarshal(raw, &codes); err != nil {
		return fmt.Errorf("parse promo file: %w", err)
	}
	for _, c := range codes {
		if strings.TrimSpace(c.Code) == "" {
			return fmt.Errorf("promo file: empty code")
		}
		if c.DiscountPercent < 0 || c.DiscountPercent > 100 {
			return fmt.Errorf("promo file: discount percent %d out of range for %q", c.DiscountPercent, c.Code)
		}
	}
	r.swap(codes)
	return nil
}

func (r *Registry) swap(codes []Code) {
	next := make(map[string]Code, len(codes))
	for _, c := range codes {
		next[normalize(c.Code)] = c
	}
	r.mu.Lock()
	r.codes = next
	r.mu.Unlock()
}

// Resolve returns the active code matching the given string, or nil when the
// code is unknown, inactive, or blank. Callers treat nil as "no discount".
func (r *Registry) Resolve(code string) *Code {
	key := normalize(code)
	if key == "" {
		return nil
	}
	r.mu.RLock()
	found, ok := r.codes[key]
	r.mu.RUnlock()
	if !ok || !found.IsActive {
		return nil
	}
	return &found
}

// List returns every active code, for the storefront promo listing.
func (r *Registry) List() []Code {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Code, 0, len(r.codes))
	for _, c := range r.codes {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// normalize uppercases via strings.ToUpper, which folds Cyrillic as well as
// ASCII, so "первый" and "ПЕРВЫЙ" resolve to the same entry.
func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
