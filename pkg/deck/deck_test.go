package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a := assert.New(t)

	d := New()
	a.Equal(52, d.CardsLeft())
	a.True(d.CanDraw(52))
	a.False(d.CanDraw(53))
}

func TestDeck_Shuffle(t *testing.T) {
	a := assert.New(t)

	d1 := New()
	d1.Shuffle(1)

	d2 := New()
	d2.Shuffle(1)

	// same seed yields the same order
	for i := range d1.Cards {
		a.True(d1.Cards[i].Equal(d2.Cards[i]))
	}

	d3 := New()
	d3.Shuffle(2)

	same := true
	for i := range d1.Cards {
		if !d1.Cards[i].Equal(d3.Cards[i]) {
			same = false
			break
		}
	}
	a.False(same)

	a.Panics(func() {
		New().Shuffle(-1)
	})
}

func TestDeck_Draw(t *testing.T) {
	a := assert.New(t)

	d := New()
	for i := 0; i < 52; i++ {
		card, err := d.Draw()
		a.NoError(err)
		a.NotNil(card)
	}

	card, err := d.Draw()
	a.Equal(ErrEndOfDeck, err)
	a.Nil(card)
}

func TestHand(t *testing.T) {
	a := assert.New(t)

	var h Hand
	h.AddCard(CardFromString("14s"))
	h.AddCard(CardFromString("2c"))

	a.True(h.HasCard(CardFromString("14s")))
	a.False(h.HasCard(CardFromString("3d")))
	a.Equal("14s,2c", h.String())
	a.Equal(CardFromString("14s"), h.FirstCard())

	clone := h.Clone()
	clone[0] = CardFromString("5d")
	a.Equal("14s", CardToString(h[0]))
}
