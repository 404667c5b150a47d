package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/handlers/combat/v1alpha1"
)

var (
	teamsFile string
	seed      string

	actionType  string
	targets     []string
	damage      string
	healing     string
	abilityName string
	abilityCost int
	difficulty  int
	checkMod    int
	checkDC     int
	advantage   bool
	actionJSON  string

	outcome string
	teamID  string

	afterSequence int
	limit         int
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session from a JSON file of teams",
	Long: `Create a session. The file holds a JSON array of teams:

  [{"id":"red","participants":[{"id":"hero","max_hp":20,"max_ap":3,"ap_regen":2,"initiative":15}]},
   {"id":"blue","participants":[{"id":"ogre","max_hp":30,"max_ap":3,"ap_regen":2,"initiative":5}]}]`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		var teams []combat.TeamSetup
		if teamsFile != "" {
			if err := readJSON(teamsFile, &teams); err != nil {
				return err
			}
		}
		return call(v1alpha1.MethodCreateSession, &v1alpha1.CreateSessionRequest{Teams: teams, Seed: seed})
	},
}

var addTeamCmd = &cobra.Command{
	Use:   "add-team [session-id] [team-file]",
	Short: "Add a team from a JSON file to a forming session",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		var team combat.TeamSetup
		if err := readJSON(args[1], &team); err != nil {
			return err
		}
		return call(v1alpha1.MethodAddTeam, &v1alpha1.AddTeamRequest{SessionID: args[0], Team: team})
	},
}

var startCmd = &cobra.Command{
	Use:   "start [session-id]",
	Short: "Start a forming session",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(v1alpha1.MethodStartSession, &v1alpha1.SessionRequest{SessionID: args[0]})
	},
}

var getCmd = &cobra.Command{
	Use:   "get [session-id]",
	Short: "Show a live or archived session",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(v1alpha1.MethodGetSession, &v1alpha1.SessionRequest{SessionID: args[0]})
	},
}

var actCmd = &cobra.Command{
	Use:   "act [session-id] [actor-id]",
	Short: "Submit an action for the participant whose turn it is",
	Long: `Submit an action. Examples:

  act s1 hero --type attack --target ogre --damage 1d8+2
  act s1 mage --type ability --name fireball --cost 3 --damage 3d6
  act s1 cleric --type item --name potion --healing 2d4+2
  act s1 rogue --type flee --difficulty 12
  act s1 hero --json '{"type":"defend"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		action, err := buildAction(args[1])
		if err != nil {
			return err
		}
		return call(v1alpha1.MethodSubmitAction, &v1alpha1.SubmitActionRequest{SessionID: args[0], Action: *action})
	},
}

var surrenderCmd = &cobra.Command{
	Use:   "surrender [session-id] [participant-id]",
	Short: "Request a surrender vote for the participant's team",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(v1alpha1.MethodRequestSurrender, &v1alpha1.SurrenderRequest{
			SessionID:     args[0],
			ParticipantID: args[1],
		})
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote [session-id] [participant-id] [YES|NO|ABSTAIN]",
	Short: "Cast a surrender ballot",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(v1alpha1.MethodCastSurrenderVote, &v1alpha1.VoteRequest{
			SessionID:     args[0],
			ParticipantID: args[1],
			Ballot:        combat.Ballot(args[2]),
		})
	},
}

var endCmd = &cobra.Command{
	Use:   "end [session-id]",
	Short: "Force end a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(v1alpha1.MethodEndSession, &v1alpha1.EndSessionRequest{
			SessionID: args[0],
			Outcome:   combat.Outcome(outcome),
			TeamID:    teamID,
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [session-id]",
	Short: "List a session's events",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(v1alpha1.MethodListEvents, &v1alpha1.ListEventsRequest{
			SessionID:     args[0],
			AfterSequence: afterSequence,
			Limit:         limit,
		})
	},
}

var archivedCmd = &cobra.Command{
	Use:   "archived",
	Short: "List archived sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return call(v1alpha1.MethodListArchived, &v1alpha1.ListArchivedRequest{Limit: limit})
	},
}

func init() {
	createCmd.Flags().StringVarP(&teamsFile, "file", "f", "", "JSON file with the teams")
	createCmd.Flags().StringVar(&seed, "seed", "", "Dice seed for a replayable session")

	actCmd.Flags().StringVar(&actionType, "type", string(combat.ActionAttack), "attack, ability, item, defend or flee")
	actCmd.Flags().StringSliceVar(&targets, "target", nil, "Target participant ids")
	actCmd.Flags().StringVar(&damage, "damage", "", "Damage dice, e.g. 2d6+3")
	actCmd.Flags().StringVar(&healing, "healing", "", "Healing dice, e.g. 2d4+2")
	actCmd.Flags().StringVar(&abilityName, "name", "", "Ability or item name")
	actCmd.Flags().IntVar(&abilityCost, "cost", 0, "Ability cost in action points")
	actCmd.Flags().IntVar(&difficulty, "difficulty", 0, "Flee difficulty")
	actCmd.Flags().IntVar(&checkMod, "check-modifier", 0, "Skill check modifier")
	actCmd.Flags().IntVar(&checkDC, "check-dc", 0, "Skill check difficulty; 0 means no check")
	actCmd.Flags().BoolVar(&advantage, "advantage", false, "Roll the skill check with advantage")
	actCmd.Flags().StringVar(&actionJSON, "json", "", "Full action as JSON; other action flags are ignored")

	endCmd.Flags().StringVar(&outcome, "outcome", string(combat.OutcomeDraw), "VICTORY, DEFEAT, DRAW or TIMEOUT")
	endCmd.Flags().StringVar(&teamID, "team", "", "Winning team for VICTORY, losing team for DEFEAT")

	eventsCmd.Flags().IntVar(&afterSequence, "after", 0, "Only events after this sequence number")
	eventsCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events")
	archivedCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of sessions")
}

func buildAction(actorID string) (*v1alpha1.ActionDTO, error) {
	if actionJSON != "" {
		var dto v1alpha1.ActionDTO
		if err := json.Unmarshal([]byte(actionJSON), &dto); err != nil {
			return nil, fmt.Errorf("invalid --json action: %w", err)
		}
		dto.ActorID = actorID
		return &dto, nil
	}

	dmg, err := parseDice(damage)
	if err != nil {
		return nil, err
	}
	heal, err := parseDice(healing)
	if err != nil {
		return nil, err
	}

	dto := &v1alpha1.ActionDTO{
		Type:      combat.ActionType(actionType),
		ActorID:   actorID,
		TargetIDs: targets,
	}
	if checkDC > 0 {
		dto.SkillCheck = &combat.SkillCheckRequirement{Modifier: checkMod, Difficulty: checkDC, Advantage: advantage}
	}

	switch dto.Type {
	case combat.ActionAttack:
		dto.Attack = &combat.Attack{Damage: dmg}
	case combat.ActionAbility:
		dto.Ability = &combat.Ability{Name: abilityName, Cost: abilityCost, Damage: dmg, Healing: heal}
	case combat.ActionItem:
		dto.Item = &combat.Item{Name: abilityName, Damage: dmg, Healing: heal, Offensive: !dmg.IsZero()}
	case combat.ActionFlee:
		dto.Flee = &combat.Flee{Difficulty: difficulty}
	}
	return dto, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
