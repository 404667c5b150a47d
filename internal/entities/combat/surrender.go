package combat

import "time"

// Ballot is one participant's surrender vote
type Ballot string

// Ballots
const (
	BallotYes     Ballot = "YES"
	BallotNo      Ballot = "NO"
	BallotAbstain Ballot = "ABSTAIN"
)

// Valid reports whether b is a known ballot
func (b Ballot) Valid() bool {
	return b == BallotYes || b == BallotNo || b == BallotAbstain
}

// Electorate selects who votes on a surrender
type Electorate string

// Electorates
const (
	// ElectorateAll lets every participant still in combat vote
	ElectorateAll Electorate = "all"
	// ElectorateTeam restricts the vote to the surrendering team
	ElectorateTeam Electorate = "team"
)

// SurrenderState is an open surrender vote
type SurrenderState struct {
	TeamID      string            `json:"team_id"`
	RequestedBy string            `json:"requested_by"`
	RequestedAt time.Time         `json:"requested_at"`
	Electorate  []string          `json:"electorate"`
	Votes       map[string]Ballot `json:"votes"`
}

// Eligible reports whether the participant may vote
func (s *SurrenderState) Eligible(participantID string) bool {
	for _, id := range s.Electorate {
		if id == participantID {
			return true
		}
	}
	return false
}

// Complete reports whether every eligible voter has voted
func (s *SurrenderState) Complete() bool {
	return len(s.Votes) >= len(s.Electorate)
}

// Tally counts the ballots cast so far
func (s *SurrenderState) Tally() (yes, no, abstain int) {
	for _, b := range s.Votes {
		switch b {
		case BallotYes:
			yes++
		case BallotNo:
			no++
		case BallotAbstain:
			abstain++
		}
	}
	return yes, no, abstain
}

// Passed reports whether YES holds a strict majority of non-abstaining
// ballots. All-abstain fails.
func (s *SurrenderState) Passed() bool {
	yes, no, _ := s.Tally()
	return yes*2 > yes+no
}

// Clone returns a deep copy, nil safe
func (s *SurrenderState) Clone() *SurrenderState {
	if s == nil {
		return nil
	}
	out := *s
	out.Electorate = append([]string(nil), s.Electorate...)
	out.Votes = make(map[string]Ballot, len(s.Votes))
	for k, v := range s.Votes {
		out.Votes[k] = v
	}
	return &out
}
