// Package element defines the eight creature element types and the fixed
// type-effectiveness chart consulted by the battle engine.
package element

import "fmt"

// Element identifies a creature or move element type.
type Element string

// The eight creature elements. Neutral is valid only as a move element and
// is never assigned to a creature.
const (
	Fire    Element = "FIRE"
	Water   Element = "WATER"
	Plant   Element = "PLANT"
	Spark   Element = "SPARK"
	Stone   Element = "STONE"
	Metal   Element = "METAL"
	Spirit  Element = "SPIRIT"
	Venom   Element = "VENOM"
	Neutral Element = "NEUTRAL"
)

// All lists the eight creature elements in display order.
var All = []Element{Fire, Water, Plant, Spark, Stone, Metal, Spirit, Venom}

// Valid reports whether e is one of the eight creature elements.
// Neutral is not a valid creature element.
func Valid(e Element) bool {
	for _, v := range All {
		if v == e {
			return true
		}
	}
	return false
}

// Parse converts a string to an Element, rejecting unknown values and Neutral.
//
// Postcondition: returns a valid creature element or a non-nil error.
func Parse(s string) (Element, error) {
	e := Element(s)
	if !Valid(e) {
		return "", fmt.Errorf("unknown element %q", s)
	}
	return e, nil
}

// chart holds the non-neutral matchups: attacking element → defending
// element → multiplier. Pairs absent from the chart are 1x.
//
// FIRE    strong vs Plant, Metal    weak vs Water, Stone
// WATER   strong vs Fire, Stone     weak vs Plant, Spark
// PLANT   strong vs Water, Stone    weak vs Fire, Venom
// SPARK   strong vs Water, Metal    weak vs Stone, Plant
// STONE   strong vs Fire, Spark     weak vs Water, Plant, Metal
// METAL   strong vs Stone, Spirit   weak vs Fire, Spark
// SPIRIT  strong vs Spirit, Venom   weak vs Metal
// VENOM   strong vs Plant, Spirit   weak vs Stone, Metal
var chart = map[Element]map[Element]float64{
	Fire: {
		Plant: 2, Metal: 2,
		Water: 0.5, Stone: 0.5,
	},
	Water: {
		Fire: 2, Stone: 2,
		Plant: 0.5, Spark: 0.5,
	},
	Plant: {
		Water: 2, Stone: 2,
		Fire: 0.5, Venom: 0.5,
	},
	Spark: {
		Water: 2, Metal: 2,
		Stone: 0.5, Plant: 0.5,
	},
	Stone: {
		Fire: 2, Spark: 2,
		Water: 0.5, Plant: 0.5, Metal: 0.5,
	},
	Metal: {
		Stone: 2, Spirit: 2,
		Fire: 0.5, Spark: 0.5,
	},
	Spirit: {
		Spirit: 2, Venom: 2,
		Metal: 0.5,
	},
	Venom: {
		Plant: 2, Spirit: 2,
		Stone: 0.5, Metal: 0.5,
	},
}

// Effectiveness returns the damage multiplier for an attack element against a
// defender element: 2 (super effective), 0.5 (not very effective), or 1.
// Neutral attacks are always 1x.
func Effectiveness(attack, defender Element) float64 {
	if attack == Neutral {
		return 1
	}
	if mult, ok := chart[attack][defender]; ok {
		return mult
	}
	return 1
}
