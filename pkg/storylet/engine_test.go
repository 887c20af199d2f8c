package storylet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-reactor/pkg/actor"
)

func newPlayer(t *testing.T, name, background string, hp, maxHP int) *actor.PC {
	t.Helper()
	pc, err := actor.NewPCFromSpec(&actor.PCSpec{
		ID:           "player",
		Name:         name,
		BackgroundID: background,
		HP:           hp,
		MaxHP:        maxHP,
		AC:           10,
	})
	require.NoError(t, err)
	return pc
}

func placedNPC(dialogueID, name string) actor.NPC {
	return actor.NPC{
		ID:          dialogueID,
		Name:        name,
		DialogueID:  dialogueID,
		Health:      12,
		MaxHealth:   12,
		Interactive: true,
	}
}

var testNow = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func TestEvaluate_DefaultLibrary(t *testing.T) {
	plays := Default().Plays()

	tests := []struct {
		name       string
		player     *actor.PC
		npcs       []actor.NPC
		trigger    TriggerContext
		wantPlay   string
		wantBranch string
		roleChecks map[string]string
	}{
		{
			name:   "wounded victory after mission completion",
			player: newPlayer(t, "Test Operative", "corpsec_defector", 40, 100),
			npcs: []actor.NPC{
				placedNPC("npc_lira_vendor", "Lira the Smuggler"),
				placedNPC("npc_archivist_naila", "Archivist Naila"),
			},
			trigger: TriggerContext{
				Type:       TriggerMissionCompletion,
				Arc:        ArcSetup,
				MissionID:  "mission_0",
				LocationID: "slums",
				Tags:       []Tag{TagResistance, TagInjury},
			},
			wantPlay:   "firelight_ambush",
			wantBranch: "scarred_victory",
			roleChecks: map[string]string{"mentor": "Lira", "protagonist": "Test Operative", "witness": "Juno"},
		},
		{
			name:   "bonded confidant during campfire rest",
			player: newPlayer(t, "Rest Tester", "corpsec_defector", 100, 100),
			npcs: []actor.NPC{
				placedNPC("npc_lira_vendor", "Lira the Smuggler"),
				placedNPC("npc_archivist_naila", "Archivist Naila"),
			},
			trigger: TriggerContext{
				Type:       TriggerCampfireRest,
				Arc:        ArcEscalation,
				LocationID: "hideout",
				Tags:       []Tag{TagRest, TagRelationship},
			},
			wantPlay:   "neon_bivouac",
			wantBranch: "bond_renewed",
			roleChecks: map[string]string{"confidant": "Lira"},
		},
		{
			name:   "rivalry branch during a patrol ambush",
			player: newPlayer(t, "Ambush Tester", "", 45, 95),
			npcs: []actor.NPC{
				placedNPC("npc_seraph_warden", "Seraph Warden"),
				placedNPC("npc_firebrand_juno", "Firebrand Juno"),
			},
			trigger: TriggerContext{
				Type:       TriggerPatrolAmbush,
				Arc:        ArcFinale,
				LocationID: "downtown",
				Tags:       []Tag{TagCorpsec, TagAmbush, TagInjury},
			},
			wantPlay:   "serrated_omen",
			wantBranch: "rivalry_ignites",
			roleChecks: map[string]string{"rival": "Seraph"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.trigger.Timestamp = testNow
			res := Evaluate(EvaluationParams{
				Plays:     plays,
				Runtime:   NewRuntimeSnapshot(),
				Trigger:   tt.trigger,
				ActorPool: BuildActorPool(tt.player, tt.npcs),
				Now:       testNow,
			})
			require.NotNil(t, res)
			assert.Equal(t, tt.wantPlay, res.StoryletID)
			assert.Equal(t, tt.wantBranch, res.Branch.ID)
			assert.Equal(t, res.Branch.Outcome.ID, res.Outcome.ID)
			for role, name := range tt.roleChecks {
				assert.Contains(t, res.Roles[role].Name, name, "role %s", role)
			}
			assert.Equal(t, testNow.Add(res.Play.Cooldown.Duration), res.CooldownExpiresAt)
		})
	}
}

func TestEvaluate_Cooldown(t *testing.T) {
	plays := Default().Plays()
	pool := BuildActorPool(newPlayer(t, "Cooldown Tester", "", 30, 90), []actor.NPC{
		placedNPC("npc_lira_vendor", "Lira the Smuggler"),
	})
	trigger := TriggerContext{
		Type:       TriggerMissionCompletion,
		Arc:        ArcSetup,
		Timestamp:  testNow,
		LocationID: "slums",
		Tags:       []Tag{TagResistance, TagInjury},
	}

	tests := []struct {
		name     string
		expires  time.Time
		lastSeen string
		blocked  bool
	}{
		{"active with location lock", testNow.Add(time.Minute), "firelight_ambush", true},
		{"active elsewhere", testNow.Add(time.Minute), "", true},
		{"expires exactly now", testNow, "firelight_ambush", false},
		{"expired", testNow.Add(-time.Second), "firelight_ambush", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRuntimeSnapshot()
			rt.Entries["firelight_ambush"] = RuntimeEntry{
				StoryletID:        "firelight_ambush",
				LastTriggeredAt:   testNow.Add(-500 * time.Millisecond),
				CooldownExpiresAt: tt.expires,
				TimesTriggered:    1,
			}
			if tt.lastSeen != "" {
				rt.LastSeenByLocation["slums"] = tt.lastSeen
			}

			res := Evaluate(EvaluationParams{Plays: plays, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: testNow})
			if tt.blocked {
				assert.Nil(t, res)
			} else {
				assert.NotNil(t, res)
			}
		})
	}
}

func TestEvaluate_RecordThenRepeat(t *testing.T) {
	plays := Default().Plays()
	pool := BuildActorPool(newPlayer(t, "Nova", "", 80, 100), nil)
	trigger := TriggerContext{Type: TriggerCampfireRest, Arc: ArcEscalation, LocationID: "hideout", Tags: []Tag{TagRest}}

	rt := NewRuntimeSnapshot()
	first := Evaluate(EvaluationParams{Plays: plays, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: testNow})
	require.NotNil(t, first)

	again := Evaluate(EvaluationParams{Plays: plays, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: testNow})
	require.NotNil(t, again)
	assert.Equal(t, first.StoryletID, again.StoryletID)
	assert.Equal(t, first.Branch.ID, again.Branch.ID)
	assert.InDelta(t, first.Score, again.Score, 1e-12)

	rt.Record(first)
	entry := rt.Entries[first.StoryletID]
	assert.Equal(t, 1, entry.TimesTriggered)
	assert.Equal(t, first.CooldownExpiresAt, entry.CooldownExpiresAt)
	assert.Equal(t, first.StoryletID, rt.LastSeenByLocation["hideout"])

	assert.Nil(t, Evaluate(EvaluationParams{Plays: plays, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: testNow.Add(time.Minute)}))

	later := Evaluate(EvaluationParams{Plays: plays, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: first.CooldownExpiresAt})
	require.NotNil(t, later)
	assert.InDelta(t, first.Score-repeatPenalty, later.Score, 1e-12)
}

func TestEvaluate_TriggerMatching(t *testing.T) {
	plays := Default().Plays()
	pool := BuildActorPool(newPlayer(t, "Nova", "", 100, 100), nil)

	tests := []struct {
		name    string
		trigger TriggerContext
		want    bool
	}{
		{"missing required trigger tag", TriggerContext{Type: TriggerPatrolAmbush, Arc: ArcFinale, Tags: []Tag{TagAmbush}}, false},
		{"all trigger tags present", TriggerContext{Type: TriggerPatrolAmbush, Arc: ArcFinale, Tags: []Tag{TagAmbush, TagCorpsec}}, true},
		{"wrong arc", TriggerContext{Type: TriggerPatrolAmbush, Arc: ArcSetup, Tags: []Tag{TagAmbush, TagCorpsec}}, false},
		{"wrong type", TriggerContext{Type: TriggerCampfireRest, Arc: ArcFinale, Tags: []Tag{TagRest}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(EvaluationParams{Plays: plays, Runtime: NewRuntimeSnapshot(), Trigger: tt.trigger, ActorPool: pool, Now: testNow})
			if got := res != nil; got != tt.want {
				t.Errorf("expected resolution=%v, got %v", tt.want, got)
			}
		})
	}
}

func weight(w float64) *float64 { return &w }

func testPlay(id string, roles []Role, branches ...Branch) Play {
	if len(branches) == 0 {
		branches = []Branch{{ID: "only", Outcome: Outcome{ID: "only"}}}
	}
	return Play{
		ID:       id,
		Arc:      ArcSetup,
		Triggers: []TriggerDescriptor{{Type: TriggerMissionCompletion}},
		Roles:    roles,
		Branches: branches,
		Cooldown: Cooldown{Duration: time.Minute},
	}
}

func TestCasting(t *testing.T) {
	player := Actor{ID: "p", Name: "Nova", Kind: KindPlayer, Tags: []string{"player", "operative", "ally"}, Relationship: RelationshipAlly}
	rival := Actor{ID: "r", Name: "Seraph", Kind: KindContact, Tags: []string{"corpsec", "rival"}, Relationship: RelationshipRival}
	woundedAlly := Actor{ID: "w", Name: "Brant", Kind: KindContact, Tags: []string{"ally", "runner"}, Wounded: true, Relationship: RelationshipAlly}
	pool := []Actor{rival, woundedAlly, player}
	trigger := TriggerContext{Type: TriggerMissionCompletion, Arc: ArcSetup}

	t.Run("player may fill several roles", func(t *testing.T) {
		play := testPlay("twice", []Role{
			{ID: "protagonist", RequiredTags: []string{"operative"}},
			{ID: "echo", RequiredTags: []string{"operative"}},
		})
		res := Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "p", res.Roles["protagonist"].ID)
		assert.Equal(t, "p", res.Roles["echo"].ID)
		// 1 for the protagonist, 1 - 0.25 for the echo, plus play and branch weight.
		assert.InDelta(t, 1+1+0.75+1, res.Score, 1e-9)
	})

	t.Run("non-player fills one role only", func(t *testing.T) {
		play := testPlay("two_rivals", []Role{
			{ID: "first", RequiredTags: []string{"rival"}},
			{ID: "second", RequiredTags: []string{"rival"}},
		})
		assert.Nil(t, Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow}))
	})

	t.Run("wounded rejected only when explicitly disallowed", func(t *testing.T) {
		allowed := testPlay("runner_ok", []Role{{ID: "runner", RequiredTags: []string{"runner"}}})
		res := Evaluate(EvaluationParams{Plays: []Play{allowed}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "w", res.Roles["runner"].ID)

		no := false
		strict := testPlay("runner_strict", []Role{{ID: "runner", RequiredTags: []string{"runner"}, AllowWounded: &no}})
		assert.Nil(t, Evaluate(EvaluationParams{Plays: []Play{strict}, Trigger: trigger, ActorPool: pool, Now: testNow}))
	})

	t.Run("wounded sole candidate falls back to player", func(t *testing.T) {
		no := false
		play := testPlay("courier", []Role{{ID: "courier", PreferredTags: []string{"runner"}, AllowWounded: &no, FallbackToPlayer: true}})
		res := Evaluate(EvaluationParams{
			Plays:     []Play{play},
			Trigger:   trigger,
			ActorPool: []Actor{woundedAlly, player},
			Now:       testNow,
		})
		require.NotNil(t, res)
		assert.Equal(t, "p", res.Roles["courier"].ID)
	})

	t.Run("forbidden tags and preferred relationship", func(t *testing.T) {
		play := testPlay("friendly", []Role{{ID: "friend", ForbiddenTags: []string{"corpsec", "player"}, PreferredTags: []string{"ally"}}})
		res := Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "w", res.Roles["friend"].ID)
		// Base 1, +2 tag, +1.5 relationship.
		assert.InDelta(t, 1+4.5+1, res.Score, 1e-9)
	})

	t.Run("one uncast role fails the play", func(t *testing.T) {
		play := testPlay("ghost", []Role{
			{ID: "protagonist", FallbackToPlayer: true},
			{ID: "ghost", RequiredTags: []string{"spectral"}, FallbackToPlayer: true},
		})
		assert.Nil(t, Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow}))
	})

	t.Run("ties keep the first actor", func(t *testing.T) {
		play := testPlay("anyone", []Role{{ID: "someone", ForbiddenTags: []string{"player"}}})
		res := Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "r", res.Roles["someone"].ID)
	})
}

func TestScoreActor(t *testing.T) {
	role := Role{ID: "mentor", RequiredTraits: []string{"strategist"}, PreferredTags: []string{"bonded", "quartermaster"}}

	tests := []struct {
		name  string
		actor Actor
		want  float64
		ok    bool
	}{
		{"missing trait", Actor{Kind: KindContact}, 0, false},
		{"all bonuses", Actor{Kind: KindContact, Tags: []string{"bonded", "quartermaster"}, Traits: []string{"strategist"}, Relationship: RelationshipBonded}, 1 + 4 + 1 + 1.5, true},
		{"player outside protagonist", Actor{Kind: KindPlayer, Traits: []string{"strategist"}}, 1 + 1 - 0.25, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scoreActor(role, tt.actor)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBranchResolution(t *testing.T) {
	pool := []Actor{{ID: "p", Kind: KindPlayer, Tags: []string{"player"}, Traits: []string{"earnest"}}}
	trigger := TriggerContext{Type: TriggerMissionCompletion, Arc: ArcSetup, Tags: []Tag{TagOmen}}
	roles := []Role{{ID: "protagonist"}}

	t.Run("heaviest matching branch", func(t *testing.T) {
		play := testPlay("b", roles,
			Branch{ID: "light", Outcome: Outcome{ID: "light"}},
			Branch{ID: "heavy", Weight: weight(4), Conditions: Conditions{ContextTag{Tag: TagOmen}}, Outcome: Outcome{ID: "heavy"}},
			Branch{ID: "blocked", Weight: weight(9), Conditions: Conditions{ContextArc{Arc: ArcFinale}}, Outcome: Outcome{ID: "blocked"}},
		)
		res := Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "heavy", res.Branch.ID)
	})

	t.Run("first wins ties", func(t *testing.T) {
		play := testPlay("b", roles,
			Branch{ID: "one", Conditions: Conditions{RoleTrait{RoleID: "protagonist", Trait: "earnest"}}},
			Branch{ID: "two"},
		)
		res := Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "one", res.Branch.ID)
	})

	t.Run("falls back to first branch", func(t *testing.T) {
		play := testPlay("b", roles,
			Branch{ID: "first", Conditions: Conditions{RoleStatus{RoleID: "protagonist", Status: StatusWounded}}},
			Branch{ID: "second", Conditions: Conditions{RoleTag{RoleID: "missing", Tag: "player"}}},
		)
		res := Evaluate(EvaluationParams{Plays: []Play{play}, Trigger: trigger, ActorPool: pool, Now: testNow})
		require.NotNil(t, res)
		assert.Equal(t, "first", res.Branch.ID)
	})
}

func TestPlaySelection(t *testing.T) {
	pool := []Actor{{ID: "p", Kind: KindPlayer}}
	trigger := TriggerContext{Type: TriggerMissionCompletion, Arc: ArcSetup}
	roles := []Role{{ID: "protagonist"}}

	a := testPlay("a", roles)
	b := testPlay("b", roles)

	res := Evaluate(EvaluationParams{Plays: []Play{a, b}, Trigger: trigger, ActorPool: pool, Now: testNow})
	require.NotNil(t, res)
	assert.Equal(t, "a", res.StoryletID, "first play wins ties")

	rt := NewRuntimeSnapshot()
	rt.Entries["a"] = RuntimeEntry{StoryletID: "a", TimesTriggered: 2}
	res = Evaluate(EvaluationParams{Plays: []Play{a, b}, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: testNow})
	require.NotNil(t, res)
	assert.Equal(t, "b", res.StoryletID, "repeat penalty demotes a")

	b.Weight = weight(0)
	res = Evaluate(EvaluationParams{Plays: []Play{a, b}, Runtime: rt, Trigger: trigger, ActorPool: pool, Now: testNow})
	require.NotNil(t, res)
	assert.Equal(t, "b", res.StoryletID)
	assert.InDelta(t, 0+1+1, res.Score, 1e-9)
}

func TestDeriveArc(t *testing.T) {
	tests := []struct {
		index int
		want  Arc
	}{
		{-3, ArcSetup},
		{0, ArcSetup},
		{1, ArcEscalation},
		{2, ArcFinale},
		{7, ArcFinale},
	}
	for _, tt := range tests {
		if got := DeriveArc(tt.index); got != tt.want {
			t.Errorf("DeriveArc(%d): expected %s, got %s", tt.index, tt.want, got)
		}
	}
}

func TestCooldownActive(t *testing.T) {
	perLocation := Play{ID: "street_rumor", Cooldown: Cooldown{Duration: time.Minute, PerLocation: true}}
	global := Play{ID: "street_rumor", Cooldown: Cooldown{Duration: time.Minute}}

	rt := NewRuntimeSnapshot()
	rt.Entries["street_rumor"] = RuntimeEntry{StoryletID: "street_rumor", CooldownExpiresAt: testNow.Add(time.Minute)}
	rt.LastSeenByLocation["docks"] = "street_rumor"

	tests := []struct {
		name     string
		play     Play
		location string
		now      time.Time
		want     bool
	}{
		{"locked globally", global, "", testNow, true},
		{"locked where last seen", perLocation, "docks", testNow, true},
		{"locked at another location", perLocation, "slums", testNow, true},
		{"expired", perLocation, "docks", testNow.Add(time.Minute), false},
		{"never triggered", Play{ID: "other", Cooldown: Cooldown{PerLocation: true}}, "docks", testNow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cooldownActive(rt, tt.play, tt.location, tt.now); got != tt.want {
				t.Errorf("cooldownActive() = %v, want %v", got, tt.want)
			}
		})
	}
}
