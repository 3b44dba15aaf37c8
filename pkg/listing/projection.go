// Package listing derives the grouped product list shown to the user.
package listing

import (
	"sort"
	"time"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
	"github.com/kazuki11111/expiry-tracker/pkg/product"
)

const categoryKeyPrefix = "cat-"

// CollapseState is the set of group keys the user has folded. It is owned by
// the caller and only affects the Collapsed flag of derived groups.
type CollapseState struct {
	keys map[string]struct{}
}

func NewCollapseState(keys ...string) *CollapseState {
	cs := &CollapseState{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k != "" {
			cs.keys[k] = struct{}{}
		}
	}
	return cs
}

// Toggle flips key. The zero value is ready to use.
func (cs *CollapseState) Toggle(key string) {
	if cs.keys == nil {
		cs.keys = map[string]struct{}{}
	}
	if _, ok := cs.keys[key]; ok {
		delete(cs.keys, key)
		return
	}
	cs.keys[key] = struct{}{}
}

func (cs *CollapseState) IsCollapsed(key string) bool {
	if cs == nil {
		return false
	}
	_, ok := cs.keys[key]
	return ok
}

func (cs *CollapseState) Keys() []string {
	if cs == nil {
		return []string{}
	}
	out := make([]string, 0, len(cs.keys))
	for k := range cs.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SortProducts orders a copy of products by purchase date descending, then
// expiry date ascending. The sort is stable so ties keep input order.
func SortProducts(products []*entities.Product) []*entities.Product {
	sorted := make([]*entities.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PurchaseDate != sorted[j].PurchaseDate {
			return sorted[i].PurchaseDate > sorted[j].PurchaseDate
		}
		return sorted[i].ExpiryDate < sorted[j].ExpiryDate
	})
	return sorted
}

func GroupByPurchaseDate(products []*entities.Product, collapsed *CollapseState, today time.Time) []domain.ProductGroup {
	groups := []domain.ProductGroup{}
	for _, p := range SortProducts(products) {
		n := len(groups)
		if n > 0 && groups[n-1].Key == p.PurchaseDate {
			groups[n-1].Items = append(groups[n-1].Items, product.ToResponse(p, today))
			continue
		}
		groups = append(groups, domain.ProductGroup{
			Key:       p.PurchaseDate,
			Label:     p.PurchaseDate,
			Collapsed: collapsed.IsCollapsed(p.PurchaseDate),
			Items:     []domain.ProductResponse{product.ToResponse(p, today)},
		})
	}
	return groups
}

// GroupByCategory groups the sorted list by category in order of first
// appearance.
func GroupByCategory(products []*entities.Product, collapsed *CollapseState, today time.Time) []domain.ProductGroup {
	groups := []domain.ProductGroup{}
	index := map[expiry.Category]int{}
	for _, p := range SortProducts(products) {
		if i, ok := index[p.Category]; ok {
			groups[i].Items = append(groups[i].Items, product.ToResponse(p, today))
			continue
		}
		key := categoryKeyPrefix + string(p.Category)
		index[p.Category] = len(groups)
		groups = append(groups, domain.ProductGroup{
			Key:       key,
			Label:     expiry.Label(p.Category),
			Collapsed: collapsed.IsCollapsed(key),
			Items:     []domain.ProductResponse{product.ToResponse(p, today)},
		})
	}
	return groups
}

// Group dispatches on mode; anything other than category groups by date.
func Group(mode string, products []*entities.Product, collapsed *CollapseState, today time.Time) domain.ProductListResponse {
	resp := domain.ProductListResponse{GroupBy: domain.GroupByPurchaseDate, Total: len(products)}
	if mode == domain.GroupByCategory {
		resp.GroupBy = domain.GroupByCategory
		resp.Groups = GroupByCategory(products, collapsed, today)
		return resp
	}
	resp.Groups = GroupByPurchaseDate(products, collapsed, today)
	return resp
}
