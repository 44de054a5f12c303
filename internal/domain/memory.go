package domain

// RevealStatus represents what the local client has publicly learned about a
// specific card during a game.
type RevealStatus int

const (
	// RevealUnknown means the card has never been shown to anyone.
	RevealUnknown RevealStatus = iota
	// RevealMine means the card sits in the local player's hand.
	RevealMine
	// RevealPeeked means the card was revealed through a peek.
	RevealPeeked
	// RevealDiscarded means the card is face up on the discard pile.
	RevealDiscarded
)

// RevealTracker stores the client's running view of which cards have been
// publicly revealed during a game. It is a display aid for the opponents
// panel; the server state stays authoritative.
type RevealTracker struct {
	status map[string]RevealStatus
	holder map[string]string // card id -> player id at reveal time
}

// NewRevealTracker initializes an empty tracker.
func NewRevealTracker() *RevealTracker {
	return &RevealTracker{
		status: make(map[string]RevealStatus),
		holder: make(map[string]string),
	}
}

// Reset clears the tracker for a new game.
func (t *RevealTracker) Reset() {
	t.status = make(map[string]RevealStatus)
	t.holder = make(map[string]string)
}

// MarkMine records the cards currently in the local player's hand.
func (t *RevealTracker) MarkMine(cards []Card) {
	for _, c := range cards {
		if c.ID == "" {
			continue
		}
		t.status[c.ID] = RevealMine
	}
}

// MarkPeeked records cards revealed through a peek on the given player.
// Placeholder cards carry no identity and are skipped.
func (t *RevealTracker) MarkPeeked(playerID string, cards []Card) {
	for _, c := range cards {
		if c.ID == "" || !c.Revealed() {
			continue
		}
		t.status[c.ID] = RevealPeeked
		t.holder[c.ID] = playerID
	}
}

// MarkDiscarded records cards visible on the discard pile. Discards override
// any prior status for the card.
func (t *RevealTracker) MarkDiscarded(cards []Card) {
	for _, c := range cards {
		if c.ID == "" {
			continue
		}
		t.status[c.ID] = RevealDiscarded
		delete(t.holder, c.ID)
	}
}

// Status returns what is known about the card.
func (t *RevealTracker) Status(cardID string) RevealStatus {
	return t.status[cardID]
}

// Holder returns the player who held the card when it was peeked, if known.
func (t *RevealTracker) Holder(cardID string) (string, bool) {
	id, ok := t.holder[cardID]
	return id, ok
}

// RevealedCount returns how many cards have been publicly revealed so far,
// excluding the local player's own hand.
func (t *RevealTracker) RevealedCount() int {
	count := 0
	for _, st := range t.status {
		if st == RevealPeeked || st == RevealDiscarded {
			count++
		}
	}
	return count
}
