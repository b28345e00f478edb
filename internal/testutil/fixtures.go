package testutil

import (
	"time"

	"github.com/homestead/layout-server/internal/model"
)

// RandomString generates a random string of specified length
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	seed := time.Now().UnixNano()
	for i := range b {
		seed = seed*1103515245 + 12345 // Simple LCG
		idx := int(seed % int64(len(charset)))
		if idx < 0 {
			idx = -idx
		}
		b[i] = charset[idx]
	}
	return string(b)
}

// RandomPropertyName generates a random property name
func RandomPropertyName() string {
	return "Homestead " + RandomString(6)
}

// Catalog IDs used by TestCatalog.
const (
	TypeHouse      int64 = 1
	TypeBarn       int64 = 2
	TypeShed       int64 = 3
	TypeChickens   int64 = 4
	TypeGardenBed  int64 = 5
	TypeOrchard    int64 = 6
	TypeFruitTree  int64 = 7
	TypeWell       int64 = 8
	TypeWaterTank  int64 = 9
	TypeFenceRun   int64 = 10
	TypeRaisedBed  int64 = 11
	TypeGreenhouse int64 = 12
)

func cost(v float64) *float64 { return &v }

// TestCatalog returns a structure catalog covering every default category.
func TestCatalog() []model.StructureType {
	return []model.StructureType{
		{ID: TypeHouse, Name: "House", Category: model.CategoryStructures, Width: 40, Length: 30, Icon: "🏠", Cost: cost(250000)},
		{ID: TypeBarn, Name: "Barn", Category: model.CategoryStructures, Width: 40, Length: 60, Icon: "🏚", Cost: cost(60000)},
		{ID: TypeShed, Name: "Tool Shed", Category: model.CategoryStorage, Width: 10, Length: 12, Icon: "🧰", Cost: cost(3500)},
		{ID: TypeChickens, Name: "Chicken Coop", Category: model.CategoryLivestock, Width: 8, Length: 10, Icon: "🐔"},
		{ID: TypeGardenBed, Name: "Garden Bed", Category: model.CategoryGarden, Width: 4, Length: 8, Icon: "🥕"},
		{ID: TypeOrchard, Name: "Orchard", Category: model.CategoryOrchard, Width: 60, Length: 60, Icon: "🌳"},
		{ID: TypeFruitTree, Name: "Apple Tree", Category: model.CategoryOrchard, Width: 10, Length: 10, Icon: "🍎"},
		{ID: TypeWell, Name: "Well", Category: model.CategoryWater, Width: 5, Length: 5, Icon: "💧"},
		{ID: TypeWaterTank, Name: "Water Tank", Category: model.CategoryWater, Width: 8, Length: 8},
		{ID: TypeFenceRun, Name: "Fence Run", Category: model.CategoryInfrastructure, Width: 100, Length: 1},
		{ID: TypeRaisedBed, Name: "Raised Bed", Category: model.CategoryGarden, Width: 3, Length: 6},
		{ID: TypeGreenhouse, Name: "Greenhouse", Category: model.CategoryStructures, Width: 20, Length: 30, Icon: "🌱"},
	}
}

// TestProperty returns an empty property of the given size.
func TestProperty(id int64, width, length float64) model.Property {
	return model.Property{
		ID:       id,
		Name:     RandomPropertyName(),
		Width:    width,
		Length:   length,
		SoilType: "loam",
		Slope:    "gentle",
	}
}

// Placed returns a placed structure on property propertyID.
func Placed(id, propertyID, structureID int64, x, y float64) model.PlacedStructure {
	return model.PlacedStructure{
		ID:          id,
		PropertyID:  propertyID,
		StructureID: structureID,
		Position:    model.Position{X: x, Y: y},
	}
}
