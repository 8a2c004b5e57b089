package scheduler

import (
	"context"
	"math/rand"
	"sort"
	"time"
)

// Params collects the GA's tunable knobs, with the defaults from §4.7/§6.
type Params struct {
	PopulationSize    int
	Generations       int
	TournamentK       int
	CrossoverRate     float64
	MutationRate      float64
	ElitismFraction   float64
	Seed              *int64
	SoftWeights       map[string]int
	WallClockBudgetMs *int64
	Workers           int
	StagnationLimit   int // 0 disables early stop
}

// DefaultParams returns the §4.7/§6 defaults.
func DefaultParams() Params {
	return Params{
		PopulationSize:  80,
		Generations:     300,
		TournamentK:     3,
		CrossoverRate:   0.9,
		MutationRate:    0.05,
		ElitismFraction: 0.08,
		Workers:         4,
	}
}

func (p Params) withDefaults() Params {
	if p.PopulationSize <= 0 {
		p.PopulationSize = 80
	}
	if p.Generations <= 0 {
		p.Generations = 300
	}
	if p.TournamentK <= 0 {
		p.TournamentK = 3
	}
	if p.CrossoverRate == 0 {
		p.CrossoverRate = 0.9
	}
	if p.MutationRate == 0 {
		p.MutationRate = 0.05
	}
	if p.ElitismFraction == 0 {
		p.ElitismFraction = 0.08
	}
	if p.Workers <= 0 {
		p.Workers = 4
	}
	if p.SoftWeights == nil {
		p.SoftWeights = DefaultSoftWeights()
	}
	return p
}

// Result is the GA engine's output, per §6.
type Result struct {
	Genes               []Gene
	Fitness             float64
	HardBreakdown       map[string]int
	SoftBreakdown       map[string]int
	GenerationsExecuted int
	Cancelled           bool
}

type evaluated struct {
	chromosome Chromosome
	fitness    float64
	evaluation EvaluationResult
}

// Run executes the genetic algorithm end to end: pre-run validation,
// population initialization, then the generational loop of elitism,
// tournament selection, section-wise crossover, and safe mutation,
// evaluating fitness in parallel across Workers goroutines while keeping
// selection/crossover/mutation single-threaded on the caller's goroutine.
func Run(ctx context.Context, input SchedulingInput, params Params) (Result, error) {
	if err := validateInput(&input); err != nil {
		return Result{}, err
	}
	input.Prepare()
	params = params.withDefaults()

	demand, err := ExpandDemand(&input)
	if err != nil {
		return Result{}, err
	}

	oracle := NewPlacementOracle(&input)

	var runSeed int64 = time.Now().UnixNano()
	if params.Seed != nil {
		runSeed = *params.Seed
	}
	coordinatorRand := newSeededRand(&runSeed)

	var deadline <-chan time.Time
	if params.WallClockBudgetMs != nil {
		timer := time.NewTimer(time.Duration(*params.WallClockBudgetMs) * time.Millisecond)
		defer timer.Stop()
		deadline = timer.C
	}

	population := make([]Chromosome, params.PopulationSize)
	for i := range population {
		population[i] = BuildChromosome(&input, demand, oracle, workerRand(runSeed, i))
	}

	scored := evaluatePopulation(ctx, &input, population, params)

	best := bestOf(scored)
	generationsExecuted := 0
	cancelled := false
	stagnantGenerations := 0

generationLoop:
	for gen := 0; gen < params.Generations; gen++ {
		select {
		case <-ctx.Done():
			cancelled = true
			break generationLoop
		case <-deadline:
			cancelled = true
			break generationLoop
		default:
		}

		sort.Slice(scored, func(i, j int) bool { return scored[i].fitness > scored[j].fitness })

		eliteCount := int(ceilFraction(params.ElitismFraction, params.PopulationSize))
		if eliteCount > len(scored) {
			eliteCount = len(scored)
		}

		next := make([]Chromosome, 0, params.PopulationSize)
		for i := 0; i < eliteCount; i++ {
			next = append(next, scored[i].chromosome.Clone())
		}

		for len(next) < params.PopulationSize {
			parent1 := tournamentSelect(scored, params.TournamentK, coordinatorRand)
			parent2 := tournamentSelect(scored, params.TournamentK, coordinatorRand)

			child1, child2 := parent1.Clone(), parent2.Clone()
			if coordinatorRand.Float64() < params.CrossoverRate {
				child1, child2 = crossover(parent1, parent2, coordinatorRand)
			}

			child1 = mutate(&input, oracle, child1, params.MutationRate, coordinatorRand)
			next = append(next, child1)
			if len(next) < params.PopulationSize {
				child2 = mutate(&input, oracle, child2, params.MutationRate, coordinatorRand)
				next = append(next, child2)
			}
		}

		population = next
		scored = evaluatePopulation(ctx, &input, population, params)
		generationsExecuted++

		if candidate := bestOf(scored); candidate.fitness > best.fitness {
			best = candidate
			stagnantGenerations = 0
		} else {
			stagnantGenerations++
		}

		if params.StagnationLimit > 0 && stagnantGenerations >= params.StagnationLimit {
			break generationLoop
		}
	}

	genes := Encode(best.chromosome, RowPerGene)
	resultGenes := make([]Gene, 0, len(genes))
	for _, row := range genes {
		resultGenes = append(resultGenes, Gene{
			SectionID: row.SectionID,
			SubjectID: row.SubjectID,
			FacultyID: row.FacultyID,
			RoomID:    row.RoomID,
			StartSlot: row.StartSlot,
			BlockSize: row.Duration,
		})
	}

	return Result{
		Genes:               resultGenes,
		Fitness:             best.fitness,
		HardBreakdown:       best.evaluation.HardBreakdown,
		SoftBreakdown:       best.evaluation.SoftBreakdown,
		GenerationsExecuted: generationsExecuted,
		Cancelled:           cancelled,
	}, nil
}

func validateInput(input *SchedulingInput) error {
	if len(input.Sections) == 0 || len(input.Subjects) == 0 || len(input.Rooms) == 0 || len(input.Curriculum) == 0 {
		return ErrEmptyInput
	}
	if len(input.UsableSlots) == 0 {
		return ErrNoUsableSlots
	}
	requiredRoomKinds := make(map[RoomKind]bool)
	for _, s := range input.Subjects {
		requiredRoomKinds[roomKindFor(s.Kind)] = true
	}
	availableRoomKinds := make(map[RoomKind]bool)
	for _, r := range input.Rooms {
		availableRoomKinds[r.Type] = true
	}
	for kind := range requiredRoomKinds {
		if !availableRoomKinds[kind] {
			return ErrNoRoomOfAnyKind
		}
	}
	for _, s := range input.Subjects {
		switch s.Kind {
		case KindLab:
			if s.BlockSize < 2 || s.RequiredPeriodsPerWeek%s.BlockSize != 0 {
				return ErrInvalidLabConfig
			}
		case KindTheory:
			if s.BlockSize != 1 {
				return ErrInvalidLabConfig
			}
		default:
			return ErrInvalidLabConfig
		}
	}
	return nil
}

func ceilFraction(fraction float64, total int) int {
	raw := fraction * float64(total)
	whole := int(raw)
	if float64(whole) < raw {
		whole++
	}
	return whole
}

// evaluatePopulation scores every chromosome in parallel across
// params.Workers goroutines. SchedulingInput is immutable and shared by
// reference; each chromosome is owned by exactly one worker at a time, so
// no locking is required on the hot path.
func evaluatePopulation(ctx context.Context, input *SchedulingInput, population []Chromosome, params Params) []evaluated {
	results := make([]evaluated, len(population))

	jobs := make(chan int, len(population))
	for i := range population {
		jobs <- i
	}
	close(jobs)

	workers := params.Workers
	if workers > len(population) {
		workers = len(population)
	}
	if workers <= 0 {
		workers = 1
	}

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for idx := range jobs {
				evalResult := Evaluate(input, population[idx], params.SoftWeights)
				results[idx] = evaluated{
					chromosome: population[idx],
					fitness:    Fitness(evalResult),
					evaluation: evalResult,
				}
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	return results
}

func bestOf(scored []evaluated) evaluated {
	best := scored[0]
	for _, s := range scored[1:] {
		if s.fitness > best.fitness {
			best = s
		}
	}
	return best
}

// tournamentSelect samples k individuals without replacement and returns
// the fittest.
func tournamentSelect(scored []evaluated, k int, rng *rand.Rand) Chromosome {
	if k > len(scored) {
		k = len(scored)
	}
	indexes := rng.Perm(len(scored))[:k]
	best := scored[indexes[0]]
	for _, idx := range indexes[1:] {
		if scored[idx].fitness > best.fitness {
			best = scored[idx]
		}
	}
	return best.chromosome
}

// crossover performs section-wise single-point crossover: for each
// section whose parents carry equal-length gene lists, pick one cut point
// and swap tails; otherwise the longer parent's genes are inherited
// unchanged by both children.
func crossover(parent1, parent2 Chromosome, rng *rand.Rand) (Chromosome, Chromosome) {
	child1 := Chromosome{Sections: make(map[string][]Gene, len(parent1.Sections))}
	child2 := Chromosome{Sections: make(map[string][]Gene, len(parent1.Sections))}

	sectionIDs := make([]string, 0, len(parent1.Sections))
	for id := range parent1.Sections {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Strings(sectionIDs)

	for _, sectionID := range sectionIDs {
		genes1 := parent1.Sections[sectionID]
		genes2 := parent2.Sections[sectionID]

		if len(genes1) != len(genes2) || len(genes1) < 2 {
			longer := genes1
			if len(genes2) > len(genes1) {
				longer = genes2
			}
			child1.Sections[sectionID] = cloneGenes(longer)
			child2.Sections[sectionID] = cloneGenes(longer)
			continue
		}

		cut := 1 + rng.Intn(len(genes1)-1)
		a := append(cloneGenes(genes1[:cut]), cloneGenes(genes2[cut:])...)
		b := append(cloneGenes(genes2[:cut]), cloneGenes(genes1[cut:])...)
		child1.Sections[sectionID] = a
		child2.Sections[sectionID] = b
	}

	return child1, child2
}

func cloneGenes(genes []Gene) []Gene {
	out := make([]Gene, len(genes))
	copy(out, genes)
	return out
}

// mutate applies safe, conflict-aware mutation: for each gene, with
// probability mutationRate, try a new same-day start and a freshly picked
// room; the attempt is only kept if it introduces no section/faculty/room
// overlap and does not violate the subject-day rule, otherwise the
// original gene is kept.
func mutate(input *SchedulingInput, oracle *PlacementOracle, chromosome Chromosome, mutationRate float64, rng *rand.Rand) Chromosome {
	sectionOcc := newOccupancy()
	facultyOcc := newOccupancy()
	roomOcc := newOccupancy()
	subjectDays := make(subjectDaySet)

	for sectionID, genes := range chromosome.Sections {
		for _, g := range genes {
			slots := blockSlots(g.StartSlot, g.BlockSize)
			sectionOcc.reserve(sectionID, slots)
			facultyOcc.reserve(g.FacultyID, slots)
			roomOcc.reserve(g.RoomID, slots)
			if day, ok := input.Day(g.StartSlot); ok {
				subjectDays.add(sectionID, g.SubjectID, day)
			}
		}
	}

	sectionIDs := make([]string, 0, len(chromosome.Sections))
	for id := range chromosome.Sections {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Strings(sectionIDs)

	for _, sectionID := range sectionIDs {
		genes := chromosome.Sections[sectionID]
		for i, g := range genes {
			if rng.Float64() >= mutationRate {
				continue
			}

			day, ok := input.Day(g.StartSlot)
			if !ok {
				continue
			}
			subject, ok := input.subject(g.SubjectID)
			if !ok {
				continue
			}
			section, ok := input.section(sectionID)
			if !ok {
				continue
			}

			maxOffset := input.PeriodsPerDay - g.BlockSize
			if maxOffset < 0 {
				continue
			}
			newOffset := rng.Intn(maxOffset + 1)
			dayStart := day * input.PeriodsPerDay
			if dayStart+newOffset >= len(input.SlotOrder) {
				continue
			}
			newStart := input.SlotOrder[dayStart+newOffset]

			kind := roomKindFor(subject.Kind)
			newRoom, ok := oracle.PickRoom(kind, section.StudentCount, rng)
			if !ok {
				continue
			}

			oldSlots := blockSlots(g.StartSlot, g.BlockSize)
			newSlots := blockSlots(newStart, g.BlockSize)

			sectionOcc.release(sectionID, oldSlots)
			facultyOcc.release(g.FacultyID, oldSlots)
			roomOcc.release(g.RoomID, oldSlots)
			subjectDays.remove(sectionID, g.SubjectID, day)

			ok = sectionOcc.free(sectionID, newSlots) && facultyOcc.free(g.FacultyID, newSlots) && roomOcc.free(newRoom.RoomID, newSlots) &&
				!subjectDays.has(sectionID, g.SubjectID, day)

			if ok {
				genes[i] = Gene{
					SectionID: g.SectionID,
					SubjectID: g.SubjectID,
					FacultyID: g.FacultyID,
					RoomID:    newRoom.RoomID,
					StartSlot: newStart,
					BlockSize: g.BlockSize,
				}
				sectionOcc.reserve(sectionID, newSlots)
				facultyOcc.reserve(g.FacultyID, newSlots)
				roomOcc.reserve(newRoom.RoomID, newSlots)
				subjectDays.add(sectionID, g.SubjectID, day)
			} else {
				sectionOcc.reserve(sectionID, oldSlots)
				facultyOcc.reserve(g.FacultyID, oldSlots)
				roomOcc.reserve(g.RoomID, oldSlots)
				subjectDays.add(sectionID, g.SubjectID, day)
			}
		}
		chromosome.Sections[sectionID] = genes
	}

	return chromosome
}
