package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contiguousSlots(days, periodsPerDay int) []int {
	slots := make([]int, 0, days*periodsPerDay)
	for i := 0; i < days*periodsPerDay; i++ {
		slots = append(slots, i+1)
	}
	return slots
}

func usableSet(slots ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}

func seed(v int64) *int64 { return &v }

// S1 - minimal theory.
func TestScenarioS1MinimalTheory(t *testing.T) {
	slots := contiguousSlots(1, 5)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 30}},
		Subjects: []Subject{{SubjectID: "SUB1", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 3}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "SUB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLecture, Capacity: 40}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		LunchSlots:    map[int]struct{}{},
		PeriodsPerDay: 5,
		DayCount:      1,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 20, Generations: 40, Seed: seed(1)})
	require.NoError(t, err)
	assert.Len(t, result.Genes, 3)
	assert.Equal(t, 0, result.HardBreakdown[ViolationSubjectWeeklyQuota])
	assert.Zero(t, sumHard(result.HardBreakdown))

	daySeen := map[int]struct{}{}
	for _, g := range result.Genes {
		daySeen[g.StartSlot] = struct{}{}
	}
	assert.Len(t, daySeen, 3, "all three sessions land on distinct slots")
}

// S2 - lab feasible.
func TestScenarioS2LabFeasible(t *testing.T) {
	slots := contiguousSlots(2, 4)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 20}},
		Subjects: []Subject{{SubjectID: "LAB1", Kind: KindLab, BlockSize: 2, RequiredPeriodsPerWeek: 4}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "LAB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLab, Capacity: 25}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		LunchSlots:    map[int]struct{}{},
		PeriodsPerDay: 4,
		DayCount:      2,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 20, Generations: 60, Seed: seed(2)})
	require.NoError(t, err)
	require.Len(t, result.Genes, 2)
	assert.Zero(t, sumHard(result.HardBreakdown))
	assert.Equal(t, 0, result.SoftBreakdown[SoftTooManyLabs])

	prepared := input
	prepared.Prepare()
	days := map[int]struct{}{}
	for _, g := range result.Genes {
		assert.Equal(t, 2, g.BlockSize)
		d, ok := prepared.Day(g.StartSlot)
		require.True(t, ok)
		days[d] = struct{}{}
	}
	assert.Len(t, days, 2, "each lab session falls on a different day")
}

// S3 - lab infeasible config fails pre-run.
func TestScenarioS3LabInfeasibleConfig(t *testing.T) {
	slots := contiguousSlots(2, 4)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 20}},
		Subjects: []Subject{{SubjectID: "LAB1", Kind: KindLab, BlockSize: 2, RequiredPeriodsPerWeek: 3}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "LAB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLab, Capacity: 25}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		PeriodsPerDay: 4,
		DayCount:      2,
		SlotOrder:     slots,
	}

	_, err := Run(context.Background(), input, Params{PopulationSize: 10, Generations: 5})
	require.ErrorIs(t, err, ErrInvalidLabConfig)
}

// S4 - capacity squeeze.
func TestScenarioS4CapacitySqueeze(t *testing.T) {
	slots := contiguousSlots(1, 5)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 50}},
		Subjects: []Subject{{SubjectID: "SUB1", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 3}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "SUB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLecture, Capacity: 40}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		PeriodsPerDay: 5,
		DayCount:      1,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 10, Generations: 10, Seed: seed(4)})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.HardBreakdown[ViolationRoomCapacity], 1)
	assert.Less(t, result.Fitness, 0.0)
}

// S5 - lunch preservation when demand leaves slack.
func TestScenarioS5LunchPreservationWithSlack(t *testing.T) {
	slots := contiguousSlots(1, 6)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 30}},
		Subjects: []Subject{{SubjectID: "SUB1", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 5}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "SUB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLecture, Capacity: 40}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		LunchSlots:    usableSet(3, 4),
		PeriodsPerDay: 6,
		DayCount:      1,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 40, Generations: 150, Seed: seed(5)})
	require.NoError(t, err)
	assert.Zero(t, sumHard(result.HardBreakdown))
	assert.Equal(t, 0, result.SoftBreakdown[SoftLunchMissing])
}

// S5b - lunch missing when demand fills every usable slot.
func TestScenarioS5bLunchMissingWhenSaturated(t *testing.T) {
	slots := contiguousSlots(1, 6)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 30}},
		Subjects: []Subject{{SubjectID: "SUB1", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 6}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "SUB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLecture, Capacity: 40}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		LunchSlots:    usableSet(3, 4),
		PeriodsPerDay: 6,
		DayCount:      1,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 20, Generations: 40, Seed: seed(6)})
	require.NoError(t, err)
	assert.Zero(t, sumHard(result.HardBreakdown))
	assert.Equal(t, 1, result.SoftBreakdown[SoftLunchMissing])
	assert.InDelta(t, 1000-200, result.Fitness, 1e-9)
}

// S6 - three-way collision avoidance.
func TestScenarioS6ThreeWayCollision(t *testing.T) {
	slots := contiguousSlots(1, 4)
	input := SchedulingInput{
		Sections: []Section{
			{SectionID: "SEC1", StudentCount: 20},
			{SectionID: "SEC2", StudentCount: 20},
		},
		Subjects: []Subject{
			{SubjectID: "SUBA", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2},
			{SubjectID: "SUBB", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2},
		},
		Curriculum: []CurriculumEdge{
			{SectionID: "SEC1", SubjectID: "SUBA", FacultyID: "FACX"},
			{SectionID: "SEC2", SubjectID: "SUBB", FacultyID: "FACX"},
		},
		Rooms: []Room{
			{RoomID: "R1", Type: RoomLecture, Capacity: 40},
			{RoomID: "R2", Type: RoomLecture, Capacity: 40},
		},
		Faculty:       []Faculty{{FacultyID: "FACX", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		PeriodsPerDay: 4,
		DayCount:      1,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 60, Generations: 200, Seed: seed(7)})
	require.NoError(t, err)
	assert.Zero(t, sumHard(result.HardBreakdown))
	assert.Equal(t, 0, result.HardBreakdown[ViolationTeacherOverlap])
	assert.Equal(t, 0, result.HardBreakdown[ViolationSectionOverlap])
	assert.Equal(t, 0, result.HardBreakdown[ViolationRoomOverlap])
	assert.Len(t, result.Genes, 4)
}

// Determinism: identical input, params, and seed produce identical output.
func TestDeterminismWithFixedSeed(t *testing.T) {
	build := func() SchedulingInput {
		slots := contiguousSlots(2, 4)
		return SchedulingInput{
			Sections: []Section{{SectionID: "SEC1", StudentCount: 20}},
			Subjects: []Subject{{SubjectID: "LAB1", Kind: KindLab, BlockSize: 2, RequiredPeriodsPerWeek: 4}},
			Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "LAB1", FacultyID: "FAC1"}},
			Rooms:    []Room{{RoomID: "R1", Type: RoomLab, Capacity: 25}},
			Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
			UsableSlots:   usableSet(slots...),
			PeriodsPerDay: 4,
			DayCount:      2,
			SlotOrder:     slots,
		}
	}

	params := Params{PopulationSize: 20, Generations: 30, Seed: seed(42), Workers: 1}

	r1, err := Run(context.Background(), build(), params)
	require.NoError(t, err)
	r2, err := Run(context.Background(), build(), params)
	require.NoError(t, err)

	assert.Equal(t, r1.Genes, r2.Genes)
	assert.Equal(t, r1.Fitness, r2.Fitness)
}

// Determinism must hold with more than one section: crossover and mutate
// iterate sections in sorted order rather than map order so that the shared
// RNG stream is drawn identically across runs with the same seed.
func TestDeterminismWithFixedSeedMultiSection(t *testing.T) {
	build := func() SchedulingInput {
		slots := contiguousSlots(1, 4)
		return SchedulingInput{
			Sections: []Section{
				{SectionID: "SEC1", StudentCount: 20},
				{SectionID: "SEC2", StudentCount: 20},
			},
			Subjects: []Subject{
				{SubjectID: "SUBA", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2},
				{SubjectID: "SUBB", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2},
			},
			Curriculum: []CurriculumEdge{
				{SectionID: "SEC1", SubjectID: "SUBA", FacultyID: "FACX"},
				{SectionID: "SEC2", SubjectID: "SUBB", FacultyID: "FACX"},
			},
			Rooms: []Room{
				{RoomID: "R1", Type: RoomLecture, Capacity: 40},
				{RoomID: "R2", Type: RoomLecture, Capacity: 40},
			},
			Faculty:       []Faculty{{FacultyID: "FACX", MaxWeeklyLoad: 20}},
			UsableSlots:   usableSet(slots...),
			PeriodsPerDay: 4,
			DayCount:      1,
			SlotOrder:     slots,
		}
	}

	params := Params{PopulationSize: 20, Generations: 30, Seed: seed(7), Workers: 1}

	r1, err := Run(context.Background(), build(), params)
	require.NoError(t, err)
	r2, err := Run(context.Background(), build(), params)
	require.NoError(t, err)

	assert.Equal(t, r1.Genes, r2.Genes)
	assert.Equal(t, r1.Fitness, r2.Fitness)
}

// Round-trip: encoding then re-evaluating reproduces the same breakdowns.
func TestEncodeRoundTrip(t *testing.T) {
	slots := contiguousSlots(1, 5)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 30}},
		Subjects: []Subject{{SubjectID: "SUB1", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 3}},
		Curriculum: []CurriculumEdge{{SectionID: "SEC1", SubjectID: "SUB1", FacultyID: "FAC1"}},
		Rooms:    []Room{{RoomID: "R1", Type: RoomLecture, Capacity: 40}},
		Faculty:  []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		PeriodsPerDay: 5,
		DayCount:      1,
		SlotOrder:     slots,
	}
	input.Prepare()

	oracle := NewPlacementOracle(&input)
	demand, err := ExpandDemand(&input)
	require.NoError(t, err)

	chromosome := BuildChromosome(&input, demand, oracle, newSeededRand(seed(99)))
	before := Evaluate(&input, chromosome, DefaultSoftWeights())

	rows := Encode(chromosome, RowPerGene)
	rebuilt := Chromosome{Sections: map[string][]Gene{}}
	for _, row := range rows {
		rebuilt.Sections[row.SectionID] = append(rebuilt.Sections[row.SectionID], Gene{
			SectionID: row.SectionID,
			SubjectID: row.SubjectID,
			FacultyID: row.FacultyID,
			RoomID:    row.RoomID,
			StartSlot: row.StartSlot,
			BlockSize: row.Duration,
		})
	}
	after := Evaluate(&input, rebuilt, DefaultSoftWeights())

	assert.Equal(t, before.HardBreakdown, after.HardBreakdown)
	assert.Equal(t, before.SoftBreakdown, after.SoftBreakdown)
}

// Demand conservation: every (section, subject) gets exactly its required periods.
func TestDemandConservation(t *testing.T) {
	slots := contiguousSlots(3, 4)
	input := SchedulingInput{
		Sections: []Section{{SectionID: "SEC1", StudentCount: 20}},
		Subjects: []Subject{
			{SubjectID: "SUBA", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 4},
			{SubjectID: "LABX", Kind: KindLab, BlockSize: 2, RequiredPeriodsPerWeek: 4},
		},
		Curriculum: []CurriculumEdge{
			{SectionID: "SEC1", SubjectID: "SUBA", FacultyID: "FAC1"},
			{SectionID: "SEC1", SubjectID: "LABX", FacultyID: "FAC2"},
		},
		Rooms: []Room{
			{RoomID: "R1", Type: RoomLecture, Capacity: 40},
			{RoomID: "R2", Type: RoomLab, Capacity: 40},
		},
		Faculty:       []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}, {FacultyID: "FAC2", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		PeriodsPerDay: 4,
		DayCount:      3,
		SlotOrder:     slots,
	}

	result, err := Run(context.Background(), input, Params{PopulationSize: 40, Generations: 150, Seed: seed(11)})
	require.NoError(t, err)

	totals := map[string]int{}
	for _, g := range result.Genes {
		totals[g.SubjectID] += g.BlockSize
	}
	assert.Equal(t, 4, totals["SUBA"])
	assert.Equal(t, 4, totals["LABX"])
}

// A non-empty room inventory missing the specific kind a subject needs
// (here: labs only, no lecture rooms) must be rejected distinctly from a
// wholesale-empty one.
func TestValidateInputNoRoomOfRequiredKind(t *testing.T) {
	slots := contiguousSlots(1, 4)
	input := SchedulingInput{
		Sections:      []Section{{SectionID: "SEC1", StudentCount: 20}},
		Subjects:      []Subject{{SubjectID: "SUB1", Kind: KindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2}},
		Curriculum:    []CurriculumEdge{{SectionID: "SEC1", SubjectID: "SUB1", FacultyID: "FAC1"}},
		Rooms:         []Room{{RoomID: "R1", Type: RoomLab, Capacity: 40}},
		Faculty:       []Faculty{{FacultyID: "FAC1", MaxWeeklyLoad: 20}},
		UsableSlots:   usableSet(slots...),
		PeriodsPerDay: 4,
		DayCount:      1,
		SlotOrder:     slots,
	}

	_, err := Run(context.Background(), input, Params{PopulationSize: 10, Generations: 5, Seed: seed(1)})
	assert.ErrorIs(t, err, ErrNoRoomOfAnyKind)
}

func sumHard(breakdown map[string]int) int {
	total := 0
	for _, v := range breakdown {
		total += v
	}
	return total
}
