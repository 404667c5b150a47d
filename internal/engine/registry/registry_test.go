package registry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-combat/internal/engine/actions"
	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/engine/registry"
	"github.com/KirkDiggler/rpg-combat/internal/engine/session"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/testutils"
)

type RegistryTestSuite struct {
	suite.Suite
	registry *registry.Registry
	machine  *session.Machine
	now      time.Time
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	var err error
	s.registry, err = registry.New(&registry.Config{
		LockTimeout:       50 * time.Millisecond,
		InactivityTimeout: 10 * time.Minute,
		ResultGrace:       time.Minute,
	})
	s.Require().NoError(err)

	tracker := effects.NewTracker(nil)
	resolver, err := actions.NewResolver(&actions.Config{Tracker: tracker})
	s.Require().NoError(err)
	s.machine, err = session.NewMachine(&session.Config{Resolver: resolver, Tracker: tracker})
	s.Require().NoError(err)

	s.now = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
}

func (s *RegistryTestSuite) create(id string, start bool) *combat.Session {
	sess, err := session.New(id, testutils.DuelTeams(), s.now, 99)
	s.Require().NoError(err)
	if start {
		_, err = s.machine.Start(sess, s.now)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.registry.Create(sess))
	return sess
}

// hold keeps the session locked until the returned func is called
func (s *RegistryTestSuite) hold(id string) func() {
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = s.registry.WithSession(context.Background(), id, func(*combat.Session, dice.Roller) error {
			close(locked)
			<-release
			return nil
		})
	}()

	<-locked
	return func() {
		close(release)
		<-done
	}
}

func (s *RegistryTestSuite) TestNewValidatesConfig() {
	_, err := registry.New(nil)
	s.Error(err)

	_, err = registry.New(&registry.Config{InactivityTimeout: time.Minute})
	s.True(errors.IsInvalidArgument(err))

	_, err = registry.New(&registry.Config{LockTimeout: time.Second, InactivityTimeout: time.Minute, ResultGrace: -time.Second})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RegistryTestSuite) TestCreateAndGet() {
	s.create("s1", false)
	s.Equal(1, s.registry.Len())

	err := s.registry.Create(&combat.Session{ID: "s1"})
	s.True(errors.IsAlreadyExists(err))

	snapshot, err := s.registry.Get(context.Background(), "s1")
	s.Require().NoError(err)
	snapshot.Teams[0].Participants[0].HP = 1

	again, err := s.registry.Get(context.Background(), "s1")
	s.Require().NoError(err)
	s.Equal(testutils.DefaultHP, again.Teams[0].Participants[0].HP, "snapshots are detached")

	_, err = s.registry.Get(context.Background(), "missing")
	s.True(errors.IsNotFound(err))
	s.Equal(combat.ReasonSessionNotFound, errors.GetReason(err))
}

func (s *RegistryTestSuite) TestDefaultRollerIsSeeded() {
	s.create("s1", false)

	var first, second []int
	s.Require().NoError(s.registry.WithSession(context.Background(), "s1", func(_ *combat.Session, r dice.Roller) error {
		var err error
		first, err = r.RollN(5, 20)
		return err
	}))

	other, err := registry.New(&registry.Config{LockTimeout: time.Second, InactivityTimeout: time.Minute})
	s.Require().NoError(err)
	s.Require().NoError(other.Create(&combat.Session{ID: "s1", Seed: 99}))
	s.Require().NoError(other.WithSession(context.Background(), "s1", func(_ *combat.Session, r dice.Roller) error {
		second, err = r.RollN(5, 20)
		return err
	}))

	s.Equal(first, second)
}

func (s *RegistryTestSuite) TestBusySessionAborts() {
	s.create("s1", false)
	release := s.hold("s1")
	defer release()

	_, err := s.registry.Get(context.Background(), "s1")
	s.True(errors.IsAborted(err))
	s.Equal(combat.ReasonSessionBusy, errors.GetReason(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.registry.Get(ctx, "s1")
	s.True(errors.IsCanceled(err))
}

func (s *RegistryTestSuite) TestConcurrentActionsAreSerialized() {
	reg, err := registry.New(&registry.Config{LockTimeout: 5 * time.Second, InactivityTimeout: time.Hour})
	s.Require().NoError(err)

	sess, err := session.New("s1", testutils.DuelTeams(), s.now, 1)
	s.Require().NoError(err)
	_, err = s.machine.Start(sess, s.now)
	s.Require().NoError(err)
	s.Require().NoError(reg.Create(sess))

	// The hero's strike is lethal, so the ogre is rejected whichever caller
	// takes the lock first: before it is not the ogre's turn, after it the
	// session has ended.
	actions := []*combat.Action{
		{
			ActorID:   "hero",
			TargetIDs: []string{"ogre"},
			Payload:   &combat.Attack{Damage: testutils.FlatDamage(12)},
		},
		{
			ActorID:   "ogre",
			TargetIDs: []string{"hero"},
			Payload:   &combat.Attack{Damage: testutils.FlatDamage(3)},
		},
	}

	errs := make([]error, len(actions))
	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action *combat.Action) {
			defer wg.Done()
			errs[i] = reg.WithSession(context.Background(), "s1", func(sess *combat.Session, r dice.Roller) error {
				_, err := s.machine.SubmitAction(sess, action, r, s.now)
				return err
			})
		}(i, action)
	}
	wg.Wait()

	s.NoError(errs[0], "the actor whose turn it is succeeds")
	s.Require().Error(errs[1])
	s.Contains([]string{combat.ReasonNotActorTurn, combat.ReasonSessionNotActive}, errors.GetReason(errs[1]))

	snapshot, err := reg.Get(context.Background(), "s1")
	s.Require().NoError(err)
	s.Equal(combat.StatusEnded, snapshot.Status)
	s.Equal("red", snapshot.WinningTeamID)
	s.Equal(10, snapshot.Teams[0].Participants[0].HP, "the ogre never landed a blow")
	s.Equal(0, snapshot.Teams[1].Participants[0].HP)

	var spent int
	for i, e := range snapshot.Events {
		s.Equal(i+1, e.Sequence)
		if e.Kind == combat.EventResourcesSpent {
			s.Equal("hero", e.ActorID)
			spent++
		}
	}
	s.Equal(1, spent)
}

func (s *RegistryTestSuite) TestSweepTimesOutThenRemoves() {
	s.create("idle", true)
	s.create("fresh", true)

	later := s.now.Add(10 * time.Minute)
	s.Require().NoError(s.registry.WithSession(context.Background(), "fresh", func(sess *combat.Session, _ dice.Roller) error {
		sess.LastActivityAt = later
		return nil
	}))

	res, err := s.registry.SweepExpired(context.Background(), later)
	s.Require().NoError(err)
	s.Require().Len(res.TimedOut, 1)
	s.Equal("idle", res.TimedOut[0].Session.ID)
	s.Equal(combat.OutcomeTimeout, res.TimedOut[0].Session.Outcome)
	s.Equal(combat.EventSessionEnded, res.TimedOut[0].Events[0].Kind)
	s.Empty(res.Removed)

	snapshot, err := s.registry.Get(context.Background(), "idle")
	s.Require().NoError(err, "ended sessions stay readable during the grace period")
	s.Equal(combat.StatusEnded, snapshot.Status)

	res, err = s.registry.SweepExpired(context.Background(), later.Add(time.Minute))
	s.Require().NoError(err)
	s.Empty(res.TimedOut)
	s.Equal([]string{"idle"}, res.Removed)
	s.Equal([]string{"fresh"}, s.registry.IDs())

	_, err = s.registry.Get(context.Background(), "idle")
	s.True(errors.IsNotFound(err))
}

func (s *RegistryTestSuite) TestSweepSkipsBusySessions() {
	s.create("s1", true)
	release := s.hold("s1")

	res, err := s.registry.SweepExpired(context.Background(), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal([]string{"s1"}, res.Busy)
	s.Empty(res.TimedOut)

	release()

	res, err = s.registry.SweepExpired(context.Background(), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Len(res.TimedOut, 1)
}

func (s *RegistryTestSuite) TestRemove() {
	s.create("s1", false)

	s.Require().NoError(s.registry.Remove(context.Background(), "s1"))
	s.Equal(0, s.registry.Len())
	s.True(errors.IsNotFound(s.registry.Remove(context.Background(), "s1")))
}
