package fight

import (
	"testing"

	"github.com/nfrund/bosstracker/internal/gamedata"
	"github.com/stretchr/testify/require"
)

const fixtureData = `
bosses:
  - { id: dummy, name: Dummy, hp: 100 }
  - { id: big, name: Big, hp: 1000 }
  - id: phased
    name: Phased
    phases:
      - { hp: 100, discard_overkill: true }
      - { hp: 50, discard_overkill: true }
  - id: carry
    name: Carry
    phases:
      - { label: Opening, hp: 100 }
      - { label: Finale, hp: 50 }
charms:
  - { id: one, name: One, cost: 1 }
  - { id: two, name: Two, cost: 2 }
  - { id: three, name: Three, cost: 3 }
  - { id: five, name: Five, cost: 5 }
  - { id: free, name: Free, cost: 0 }
nail_upgrades:
  - { id: n5, name: Five, damage: 5 }
  - { id: n9, name: Nine, damage: 9 }
spells:
  - { id: fireball, name: Fireball, base: 15, upgrade: 30 }
sequences:
  - id: trio
    name: Trio
    conditions:
      - { id: extra, default: false }
      - { id: swap, default: false }
    stages:
      - { target: dummy, replace_when: swap, alt_target: big }
      - { target: big }
      - { target: carry, include_when: extra }
      - { target: phased }
  - id: solo
    name: Solo
    stages:
      - { target: dummy }
`

func testCatalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	c, err := gamedata.Parse([]byte(fixtureData))
	require.NoError(t, err)
	return c
}

func newTestReducer(t *testing.T) (*Reducer, *State) {
	t.Helper()
	return NewReducer(testCatalog(t)), NewState("dummy", "n5")
}

// apply runs actions in order.
func apply(r *Reducer, s *State, actions ...Action) *State {
	for _, a := range actions {
		s = r.Reduce(s, a)
	}
	return s
}

func hit(id string, dmg, ts float64) LogAttack {
	return LogAttack{ID: id, Label: id, Damage: dmg, Category: CategoryNail, Timestamp: ts}
}

// withoutVersion zeroes the log version so states reached along different
// paths can be compared by content.
func withoutVersion(s *State) State {
	c := *s
	c.DamageLogVersion = 0
	return c
}
