package pricing

import "fmt"

// Scope は割引の適用範囲。AllProducts / Products / Categories のどれか
type Scope interface {
	isScope()
}

type AllProducts struct{}

type Products struct {
	ids map[int64]struct{}
}

type Categories struct {
	ids map[int64]struct{}
}

func (AllProducts) isScope() {}
func (Products) isScope()    {}
func (Categories) isScope()  {}

func NewProductsScope(ids ...int64) Products {
	return Products{ids: toSet(ids)}
}

func NewCategoriesScope(ids ...int64) Categories {
	return Categories{ids: toSet(ids)}
}

func (p Products) Contains(id int64) bool {
	_, ok := p.ids[id]
	return ok
}

func (c Categories) Contains(id int64) bool {
	_, ok := c.ids[id]
	return ok
}

// Matches は行が適用範囲に入るかを返す。nilは全商品扱い
func Matches(s Scope, l Line) bool {
	switch sc := s.(type) {
	case nil:
		return true
	case AllProducts:
		return true
	case Products:
		return sc.Contains(l.ProductID)
	case Categories:
		return l.CategoryID != nil && sc.Contains(*l.CategoryID)
	default:
		panic(fmt.Sprintf("pricing: unhandled scope %T", s))
	}
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
