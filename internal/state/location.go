package state

// Domain names a rule domain and the screen the player is on while acting in it.
type Domain string

const (
	DomainFarm      Domain = "farm"
	DomainTown      Domain = "town"
	DomainAdventure Domain = "adventure"
	DomainMine      Domain = "mine"
	DomainForge     Domain = "forge"
	DomainHelpers   Domain = "helpers"
	DomainTower     Domain = "tower"
)

// Domains lists every domain in the fixed order systems are ticked.
var Domains = []Domain{
	DomainFarm,
	DomainTown,
	DomainAdventure,
	DomainMine,
	DomainForge,
	DomainHelpers,
	DomainTower,
}

// Location records the current screen. It is observability only and never gates an action.
type Location struct {
	Area   Domain `json:"area"`
	Since  int    `json:"since"`
	Reason string `json:"reason,omitempty"`
}

// TimeOnScreen returns minutes spent on the current screen as of now.
func (l Location) TimeOnScreen(now int) int {
	if now < l.Since {
		return 0
	}
	return now - l.Since
}

// Navigate moves the player to area. Staying on the same screen only updates the reason.
func (s *GameState) Navigate(area Domain, reason string) {
	if area == "" {
		return
	}
	if s.Location.Area != area {
		s.Location.Area = area
		s.Location.Since = s.Clock.Minute
	}
	s.Location.Reason = reason
}
