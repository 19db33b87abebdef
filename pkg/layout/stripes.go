package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
)

// Stripe places one vertical power stripe
type Stripe struct {
	Net string
	X   float64 // left edge in microns
}

// StripeConfig is the power stripe table. Stripes are drawn in slice order.
type StripeConfig struct {
	Stripes []Stripe
	Width   float64
	YMin    float64
	YMax    float64
}

// DefaultStripeConfig returns the VDPWR/VGND pair used by the tile template
func DefaultStripeConfig() StripeConfig {
	return StripeConfig{
		Stripes: []Stripe{
			{Net: "VDPWR", X: 1.0},
			{Net: "VGND", X: 4.0},
		},
		Width: 2.0,
		YMin:  5.0,
		YMax:  220.76,
	}
}

// Validate checks the table for values that cannot be drawn
func (c StripeConfig) Validate() error {
	var errs []error
	if c.Width <= 0 {
		errs = append(errs, fmt.Errorf("stripe width must be positive, got %g", c.Width))
	}
	if c.YMax <= c.YMin {
		errs = append(errs, fmt.Errorf("stripe span is empty: y_min %g, y_max %g", c.YMin, c.YMax))
	}
	seen := make(map[string]bool, len(c.Stripes))
	for i, s := range c.Stripes {
		if s.Net == "" {
			errs = append(errs, fmt.Errorf("stripe %d has no net name", i))
			continue
		}
		if seen[s.Net] {
			errs = append(errs, fmt.Errorf("stripe net %s listed twice", s.Net))
		}
		seen[s.Net] = true
	}
	return errors.Join(errs...)
}

// StripeGeometry is everything drawn for one stripe
type StripeGeometry struct {
	Polygon Polygon
	Label   Label
	Port    Port
}

// GenerateStripes draws the stripe table: a rectangle from YMin to YMax at
// [X, X+Width], with a label and an east-facing port at its center.
func GenerateStripes(cfg StripeConfig, layers LayerSet) []StripeGeometry {
	height := cfg.YMax - cfg.YMin
	out := make([]StripeGeometry, 0, len(cfg.Stripes))

	for _, s := range cfg.Stripes {
		center := Position{
			X: s.X + cfg.Width/2,
			Y: cfg.YMin + height/2,
		}

		out = append(out, StripeGeometry{
			Polygon: Polygon{
				Points: []Position{
					{X: s.X, Y: cfg.YMin},
					{X: s.X + cfg.Width, Y: cfg.YMin},
					{X: s.X + cfg.Width, Y: cfg.YMax},
					{X: s.X, Y: cfg.YMax},
				},
				Layer: layers.Metal,
			},
			Label: Label{
				Text:     s.Net,
				Position: center,
				Layer:    layers.Text,
			},
			Port: Port{
				Name:        s.Net,
				Net:         s.Net,
				Center:      center,
				Width:       cfg.Width,
				Height:      height,
				Orientation: 0,
				Layer:       layers.Metal,
				Direction:   def.DirectionInout,
				Use:         StripeUse(s.Net),
				Source:      "stripes",
			},
		})
	}
	return out
}

// StripeUse guesses the use of a supply net from its name
func StripeUse(net string) def.Use {
	upper := strings.ToUpper(net)
	if strings.Contains(upper, "GND") || strings.HasPrefix(upper, "VSS") {
		return def.UseGround
	}
	return def.UsePower
}
