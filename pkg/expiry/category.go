package expiry

import "strings"

type Category string

const (
	CategoryDairy           Category = "dairy"
	CategoryMeat            Category = "meat"
	CategoryMeatGround      Category = "meat_ground"
	CategoryFish            Category = "fish"
	CategoryEgg             Category = "egg"
	CategoryTofu            Category = "tofu"
	CategoryNatto           Category = "natto"
	CategoryHamSausage      Category = "ham_sausage"
	CategoryVegetableLeaf   Category = "vegetable_leaf"
	CategoryVegetableRoot   Category = "vegetable_root"
	CategoryVegetableOther  Category = "vegetable_other"
	CategoryFruit           Category = "fruit"
	CategoryBread           Category = "bread"
	CategoryRice            Category = "rice"
	CategoryDryNoodle       Category = "dry_noodle"
	CategoryInstant         Category = "instant"
	CategoryFlour           Category = "flour"
	CategoryFrozen          Category = "frozen"
	CategoryFrozenVegetable Category = "frozen_vegetable"
	CategoryCanned          Category = "canned"
	CategoryRetort          Category = "retort"
	CategorySnack           Category = "snack"
	CategoryBeverage        Category = "beverage"
	CategorySeasoning       Category = "seasoning"
	CategorySugarSalt       Category = "sugar_salt"
	CategoryOilVinegar      Category = "oil_vinegar"
	CategoryDeli            Category = "deli"
	CategoryOther           Category = "other"
)

type categoryInfo struct {
	label string
	days  int
}

// Shelf life in days after purchase. Values are household food-safety
// heuristics and must stay non-negative.
var categories = map[Category]categoryInfo{
	CategoryDairy:           {"乳製品", 10},
	CategoryMeat:            {"肉類", 5},
	CategoryMeatGround:      {"ひき肉", 2},
	CategoryFish:            {"魚介類", 3},
	CategoryEgg:             {"卵", 14},
	CategoryTofu:            {"豆腐", 3},
	CategoryNatto:           {"納豆", 7},
	CategoryHamSausage:      {"ハム・ソーセージ", 14},
	CategoryVegetableLeaf:   {"葉物野菜", 3},
	CategoryVegetableRoot:   {"根菜", 14},
	CategoryVegetableOther:  {"その他の野菜", 5},
	CategoryFruit:           {"果物", 7},
	CategoryBread:           {"パン", 4},
	CategoryRice:            {"米", 45},
	CategoryDryNoodle:       {"乾麺", 730},
	CategoryInstant:         {"インスタント食品", 270},
	CategoryFlour:           {"小麦粉", 270},
	CategoryFrozen:          {"冷凍食品", 90},
	CategoryFrozenVegetable: {"冷凍野菜", 300},
	CategoryCanned:          {"缶詰", 1095},
	CategoryRetort:          {"レトルト食品", 545},
	CategorySnack:           {"菓子", 180},
	CategoryBeverage:        {"飲料", 180},
	CategorySeasoning:       {"調味料", 365},
	CategorySugarSalt:       {"砂糖・塩", 1825},
	CategoryOilVinegar:      {"油・酢", 545},
	CategoryDeli:            {"惣菜", 1},
	CategoryOther:           {"その他", 14},
}

var categoryOrder = []Category{
	CategoryDairy, CategoryMeat, CategoryMeatGround, CategoryFish, CategoryEgg,
	CategoryTofu, CategoryNatto, CategoryHamSausage, CategoryVegetableLeaf,
	CategoryVegetableRoot, CategoryVegetableOther, CategoryFruit, CategoryBread,
	CategoryRice, CategoryDryNoodle, CategoryInstant, CategoryFlour, CategoryFrozen,
	CategoryFrozenVegetable, CategoryCanned, CategoryRetort, CategorySnack,
	CategoryBeverage, CategorySeasoning, CategorySugarSalt, CategoryOilVinegar,
	CategoryDeli, CategoryOther,
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses free-form text into a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// ParseCategoryOrDefault parses s and falls back to CategoryOther.
func ParseCategoryOrDefault(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryOther
}

// Label returns the display label of c, or the raw tag when c is unknown.
func Label(c Category) string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return string(c)
}

// ShelfLifeDays returns the estimated shelf life of c, using the "other"
// bucket for unknown categories.
func ShelfLifeDays(c Category) int {
	if info, ok := categories[c]; ok {
		return info.days
	}
	return categories[CategoryOther].days
}
