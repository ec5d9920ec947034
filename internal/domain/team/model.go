package team

// Team is a read-only reference; team and school administration live in a
// separate system and are consumed through the repository contract only.
type Team struct {
	ID       string
	Name     string
	SchoolID string
}
