package domain

// hiddenMark is the rank/suit value the server uses for withheld cards.
const hiddenMark = "?"

// Card is a single playing card as declared by the server. Cards the local
// player is not allowed to see arrive as placeholders with rank and suit "?".
type Card struct {
	ID     string `json:"id"`
	Rank   string `json:"rank"`
	Suit   string `json:"suit"`
	Points int    `json:"points,omitempty"`
}

// IsPlaceholder reports whether the card is an opaque placeholder.
func (c Card) IsPlaceholder() bool {
	return c.Rank == hiddenMark && c.Suit == hiddenMark
}

// Revealed reports whether the card carries full identity data.
func (c Card) Revealed() bool {
	return c.Rank != "" && !c.IsPlaceholder()
}

// AnyRevealed reports whether at least one card in the list is fully revealed.
func AnyRevealed(cards []Card) bool {
	for _, c := range cards {
		if c.Revealed() {
			return true
		}
	}
	return false
}

// RevealedOnly returns the cards that carry full identity data.
func RevealedOnly(cards []Card) []Card {
	var out []Card
	for _, c := range cards {
		if c.Revealed() {
			out = append(out, c)
		}
	}
	return out
}
