package domain

// ComfortClass is the car tier used for pricing and for matching.
type ComfortClass string

const (
	ComfortMini    ComfortClass = "Mini"
	ComfortCompact ComfortClass = "Compact"
	ComfortLuxury  ComfortClass = "Luxury"
)

// ComfortClasses lists every known class in catalog order.
var ComfortClasses = []ComfortClass{ComfortMini, ComfortCompact, ComfortLuxury}

// Valid reports whether the class is known.
func (c ComfortClass) Valid() bool {
	for _, k := range ComfortClasses {
		if c == k {
			return true
		}
	}
	return false
}

// CarType is a pricing catalog entry for one comfort class.
type CarType struct {
	Comfort ComfortClass
	PerKm   float64
	PerMin  float64
	Image   string
}
