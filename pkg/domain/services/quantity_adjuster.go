package services

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Adjustment is the outcome of rounding a demand to packs and bounds
type Adjustment struct {
	Quantity       entities.Quantity
	ClippedToMax   bool
	RaisedToMin    bool
	InvertedBounds bool
}

// CeilToPack rounds qty up to the next multiple of pack. A pack below 1 counts as 1.
func CeilToPack(qty, pack entities.Quantity) entities.Quantity {
	if pack <= 1 || qty <= 0 {
		return qty
	}
	rem := qty % pack
	if rem == 0 {
		return qty
	}
	return qty + pack - rem
}

// AdjustQuantity turns a total demand into the quantity to request:
// ceiling to pack, raised to minStock (then re-rounded) and clipped to maxStock.
// The minimum floor only applies when there is demand.
func AdjustQuantity(total, pack entities.Quantity, minStock, maxStock *entities.Quantity) Adjustment {
	adj := Adjustment{Quantity: CeilToPack(total, pack)}

	if minStock != nil && maxStock != nil && *minStock > *maxStock {
		adj.InvertedBounds = true
	}

	if total > 0 && minStock != nil && adj.Quantity < *minStock {
		adj.Quantity = CeilToPack(*minStock, pack)
		adj.RaisedToMin = true
	}

	if maxStock != nil && adj.Quantity > *maxStock {
		adj.Quantity = *maxStock
		adj.ClippedToMax = true
	}

	return adj
}

// ClipToStock limits the adjusted quantity to the effective stock when it is known
func ClipToStock(adjusted, stock entities.Quantity, stockKnown bool) entities.Quantity {
	if !stockKnown {
		return adjusted
	}
	if stock < adjusted {
		return stock
	}
	return adjusted
}

// Ratio returns numerator/denominator rounded to 4 places, and false when the
// denominator is zero
func Ratio(numerator, denominator entities.Quantity) (float64, bool) {
	if denominator == 0 {
		return 0, false
	}
	r := decimal.NewFromInt(int64(numerator)).DivRound(decimal.NewFromInt(int64(denominator)), 4)
	return r.InexactFloat64(), true
}

// ClassifySemaforo assigns the traffic light of a ship quantity.
// Unbounded materials are AMARILLO.
func ClassifySemaforo(shipQty entities.Quantity, minStock, maxStock *entities.Quantity) entities.Semaforo {
	if shipQty < 0 {
		return entities.Rojo
	}
	if minStock != nil && maxStock != nil && *minStock <= shipQty && shipQty <= *maxStock {
		return entities.Verde
	}
	return entities.Amarillo
}
