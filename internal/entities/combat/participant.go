package combat

import "github.com/KirkDiggler/rpg-toolkit/core"

// Kind distinguishes player controlled participants from NPCs
type Kind string

// Participant kinds
const (
	KindPlayer Kind = "player"
	KindNPC    Kind = "npc"
)

// Participant is one combatant inside a session
type Participant struct {
	ID string `json:"id"`
	// ActorRef is the owning player or NPC reference, opaque to the engine
	ActorRef string `json:"actor_ref,omitempty"`
	Kind     Kind   `json:"kind"`
	TeamID   string `json:"team_id"`

	HP    int `json:"hp"`
	MaxHP int `json:"max_hp"`

	AP      int `json:"ap"`
	MaxAP   int `json:"max_ap"`
	APRegen int `json:"ap_regen"`

	Initiative int `json:"initiative"`
	Armor      int `json:"armor"`

	Effects []StatusEffect `json:"effects,omitempty"`

	Alive bool `json:"alive"`
	Fled  bool `json:"fled,omitempty"`
}

var _ core.Entity = (*Participant)(nil)

// GetID returns the participant id
func (p *Participant) GetID() string {
	return p.ID
}

// GetType returns the participant kind
func (p *Participant) GetType() string {
	if p.Kind == "" {
		return string(KindNPC)
	}
	return string(p.Kind)
}

// InCombat reports whether the participant can still act: alive and not fled
func (p *Participant) InCombat() bool {
	return p.Alive && !p.Fled
}

// Clone returns a deep copy of the participant
func (p *Participant) Clone() *Participant {
	out := *p
	if p.Effects != nil {
		out.Effects = make([]StatusEffect, len(p.Effects))
		copy(out.Effects, p.Effects)
	}
	return &out
}

// TeamSetup is the external input describing one team at formation time
type TeamSetup struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Participants []ParticipantSetup `json:"participants"`
}

// ParticipantSetup carries the stats of one participant at formation time.
// HP and AP default to their maximums when zero.
type ParticipantSetup struct {
	ID         string `json:"id"`
	ActorRef   string `json:"actor_ref,omitempty"`
	Kind       Kind   `json:"kind,omitempty"`
	HP         int    `json:"hp,omitempty"`
	MaxHP      int    `json:"max_hp"`
	AP         int    `json:"ap,omitempty"`
	MaxAP      int    `json:"max_ap"`
	APRegen    int    `json:"ap_regen"`
	Initiative int    `json:"initiative"`
	Armor      int    `json:"armor,omitempty"`
}

// Build creates the participant, defaulting HP and AP to their maximums
func (ps ParticipantSetup) Build(teamID string) *Participant {
	kind := ps.Kind
	if kind == "" {
		kind = KindNPC
	}
	hp := ps.HP
	if hp == 0 {
		hp = ps.MaxHP
	}
	ap := ps.AP
	if ap == 0 {
		ap = ps.MaxAP
	}

	return &Participant{
		ID:         ps.ID,
		ActorRef:   ps.ActorRef,
		Kind:       kind,
		TeamID:     teamID,
		HP:         hp,
		MaxHP:      ps.MaxHP,
		AP:         ap,
		MaxAP:      ps.MaxAP,
		APRegen:    ps.APRegen,
		Initiative: ps.Initiative,
		Armor:      ps.Armor,
		Alive:      hp > 0,
	}
}

// Build creates the team with its participants
func (ts TeamSetup) Build() *Team {
	name := ts.Name
	if name == "" {
		name = ts.ID
	}

	team := &Team{
		ID:           ts.ID,
		Name:         name,
		Participants: make([]*Participant, 0, len(ts.Participants)),
	}
	for _, ps := range ts.Participants {
		team.Participants = append(team.Participants, ps.Build(ts.ID))
	}
	return team
}
