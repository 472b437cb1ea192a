package replay

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

// Attribute pools. The empty string means "not recorded".
var (
	brands      = []string{"Aspall", "Westons", "Thatchers", "Sassy", "Angry Orchard", "Henney's", "Oliver's"}
	styles      = []string{"", "dry", "medium", "sweet", "farmhouse", "ice", "perry"}
	sweetness   = []string{"", "bone dry", "dry", "off dry", "medium", "sweet"}
	carbonation = []string{"", "still", "petillant", "sparkling"}
	clarity     = []string{"", "clear", "hazy", "cloudy"}
	colors      = []string{"", "straw", "gold", "amber", "rose"}
	venueTypes  = []string{"", "pub", "bar", "festival", "shop", "home", "restaurant"}
)

// Step is one change event in submission order.
type Step struct {
	ID    string
	Event model.ChangeEvent
	// Invalid steps must be dropped by the engine and leave no trace.
	Invalid bool
}

// Plan is a generated dataset plus the history applied on top of it.
type Plan struct {
	Tastings    []model.TastingRecord
	Experiences []model.ExperienceRecord
	Steps       []Step

	// Final state of the canonical store after every valid step.
	FinalTastings    []model.TastingRecord
	FinalExperiences []model.ExperienceRecord
}

type generator struct {
	rng         *rand.Rand
	tastings    map[string]model.TastingRecord
	experiences map[string]model.ExperienceRecord
	tastingIDs  []string
	expIDs      []string
	seq         int
}

func (g *generator) pick(options []string) string { return options[g.rng.Intn(len(options))] }

func (g *generator) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%06d", prefix, g.seq)
}

func (g *generator) tasting(id string) model.TastingRecord {
	return model.TastingRecord{
		ID:          id,
		Rating:      float64(g.rng.Intn(11)),
		ABV:         math.Round(g.rng.Float64()*120) / 10,
		Brand:       g.pick(brands),
		Style:       g.pick(styles),
		Sweetness:   g.pick(sweetness),
		Carbonation: g.pick(carbonation),
		Clarity:     g.pick(clarity),
		Color:       g.pick(colors),
	}
}

func (g *generator) experience(id string) model.ExperienceRecord {
	rec := model.ExperienceRecord{
		ID:        id,
		Price:     math.Round(g.rng.Float64()*4000) / 100,
		VenueType: g.pick(venueTypes),
	}
	if len(g.tastingIDs) > 0 {
		rec.TastingID = g.tastingIDs[g.rng.Intn(len(g.tastingIDs))]
	}
	return rec
}

func (g *generator) addTasting() model.TastingRecord {
	rec := g.tasting(g.nextID("t"))
	g.tastings[rec.ID] = rec
	g.tastingIDs = append(g.tastingIDs, rec.ID)
	return rec
}

func (g *generator) addExperience() model.ExperienceRecord {
	rec := g.experience(g.nextID("e"))
	g.experiences[rec.ID] = rec
	g.expIDs = append(g.expIDs, rec.ID)
	return rec
}

func removeAt(ids []string, i int) []string {
	ids[i] = ids[len(ids)-1]
	return ids[:len(ids)-1]
}

// next returns a valid event against the current state and applies it.
func (g *generator) next() model.ChangeEvent {
	switch op := g.rng.Intn(6); {
	case op == 1 && len(g.tastingIDs) > 0:
		id := g.tastingIDs[g.rng.Intn(len(g.tastingIDs))]
		old := g.tastings[id]
		cur := g.tasting(id)
		g.tastings[id] = cur
		return model.TastingUpdated{Previous: &old, Record: cur}
	case op == 2 && len(g.tastingIDs) > 0:
		i := g.rng.Intn(len(g.tastingIDs))
		old := g.tastings[g.tastingIDs[i]]
		delete(g.tastings, old.ID)
		g.tastingIDs = removeAt(g.tastingIDs, i)
		return model.TastingDeleted{Previous: &old}
	case op == 3:
		return model.ExperienceAdded{Record: g.addExperience()}
	case op == 4 && len(g.expIDs) > 0:
		id := g.expIDs[g.rng.Intn(len(g.expIDs))]
		old := g.experiences[id]
		cur := g.experience(id)
		g.experiences[id] = cur
		return model.ExperienceUpdated{Previous: &old, Record: cur}
	case op == 5 && len(g.expIDs) > 0:
		i := g.rng.Intn(len(g.expIDs))
		old := g.experiences[g.expIDs[i]]
		delete(g.experiences, old.ID)
		g.expIDs = removeAt(g.expIDs, i)
		return model.ExperienceDeleted{Previous: &old}
	default:
		return model.TastingAdded{Record: g.addTasting()}
	}
}

// invalid returns an event the validator refuses. It does not touch state.
func (g *generator) invalid() model.ChangeEvent {
	if g.rng.Intn(2) == 0 {
		rec := g.tasting(g.nextID("bad-t"))
		rec.Rating = float64(11 + g.rng.Intn(5))
		return model.TastingAdded{Record: rec}
	}
	rec := g.experience(g.nextID("bad-e"))
	rec.Price = -1 - float64(g.rng.Intn(100))
	return model.ExperienceAdded{Record: rec}
}

// Generate builds a deterministic dataset and history for cfg.Seed. Event ids
// are random.
func Generate(cfg *Config) Plan {
	g := &generator{
		rng:         rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // reproducible test data
		tastings:    make(map[string]model.TastingRecord),
		experiences: make(map[string]model.ExperienceRecord),
	}

	var plan Plan
	for i := 0; i < cfg.Tastings; i++ {
		plan.Tastings = append(plan.Tastings, g.addTasting())
	}
	for i := 0; i < cfg.Experiences; i++ {
		plan.Experiences = append(plan.Experiences, g.addExperience())
	}

	total := cfg.Events + cfg.Invalid
	plan.Steps = make([]Step, 0, total)
	invalidLeft := cfg.Invalid
	for i := 0; i < total; i++ {
		remaining := total - i
		if invalidLeft > 0 && g.rng.Intn(remaining) < invalidLeft {
			invalidLeft--
			plan.Steps = append(plan.Steps, Step{ID: uuid.NewString(), Event: g.invalid(), Invalid: true})
			continue
		}
		plan.Steps = append(plan.Steps, Step{ID: uuid.NewString(), Event: g.next()})
	}

	sort.Strings(g.tastingIDs)
	for _, id := range g.tastingIDs {
		plan.FinalTastings = append(plan.FinalTastings, g.tastings[id])
	}
	sort.Strings(g.expIDs)
	for _, id := range g.expIDs {
		plan.FinalExperiences = append(plan.FinalExperiences, g.experiences[id])
	}
	return plan
}
