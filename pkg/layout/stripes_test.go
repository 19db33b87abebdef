package layout

import (
	"testing"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStripesDefaultTable(t *testing.T) {
	cfg := StripeConfig{
		Stripes: []Stripe{{Net: "VDPWR", X: 1.0}, {Net: "VGND", X: 4.0}},
		Width:   2.0,
		YMin:    5.0,
		YMax:    220.76,
	}

	geoms := GenerateStripes(cfg, DefaultLayers())
	require.Len(t, geoms, 2)

	assert.Equal(t, []Position{{1, 5}, {3, 5}, {3, 220.76}, {1, 220.76}}, geoms[0].Polygon.Points)
	assert.Equal(t, []Position{{4, 5}, {6, 5}, {6, 220.76}, {4, 220.76}}, geoms[1].Polygon.Points)

	wantCenters := []Position{{2.0, 112.88}, {5.0, 112.88}}
	for i, g := range geoms {
		assert.Equal(t, LayerMet4, g.Polygon.Layer)

		assert.Equal(t, cfg.Stripes[i].Net, g.Label.Text)
		assert.Equal(t, LayerText, g.Label.Layer)
		assert.InDelta(t, wantCenters[i].X, g.Label.Position.X, 1e-9)
		assert.InDelta(t, wantCenters[i].Y, g.Label.Position.Y, 1e-9)

		assert.Equal(t, cfg.Stripes[i].Net, g.Port.Name)
		assert.Equal(t, g.Label.Position, g.Port.Center)
		assert.Equal(t, 2.0, g.Port.Width)
		assert.Equal(t, 0.0, g.Port.Orientation)
		assert.Equal(t, LayerMet4, g.Port.Layer)
	}

	assert.Equal(t, def.UsePower, geoms[0].Port.Use)
	assert.Equal(t, def.UseGround, geoms[1].Port.Use)
}

func TestGenerateStripesKeepsOrder(t *testing.T) {
	cfg := DefaultStripeConfig()
	cfg.Stripes = []Stripe{{Net: "VGND", X: 4}, {Net: "VAPWR", X: 7}, {Net: "VDPWR", X: 1}}

	geoms := GenerateStripes(cfg, DefaultLayers())
	require.Len(t, geoms, 3)
	assert.Equal(t, "VGND", geoms[0].Label.Text)
	assert.Equal(t, "VAPWR", geoms[1].Label.Text)
	assert.Equal(t, "VDPWR", geoms[2].Label.Text)
}

func TestStripeConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultStripeConfig().Validate())

	bad := DefaultStripeConfig()
	bad.Width = 0
	assert.Error(t, bad.Validate())

	bad = DefaultStripeConfig()
	bad.YMin, bad.YMax = 10, 10
	assert.Error(t, bad.Validate())

	bad = DefaultStripeConfig()
	bad.Stripes = append(bad.Stripes, Stripe{Net: "VGND", X: 9})
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VGND listed twice")
}

func TestStripeUse(t *testing.T) {
	assert.Equal(t, def.UseGround, StripeUse("VGND"))
	assert.Equal(t, def.UseGround, StripeUse("vss"))
	assert.Equal(t, def.UsePower, StripeUse("VDPWR"))
	assert.Equal(t, def.UsePower, StripeUse("VAPWR"))
}
