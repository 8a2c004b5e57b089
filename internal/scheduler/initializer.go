package scheduler

import "math/rand"

// occupancy tracks in-progress slot usage per resource during chromosome
// construction and safe mutation. Each map key is a resource ID, each
// value the set of slots currently held by that resource.
type occupancy map[string]map[int]struct{}

func newOccupancy() occupancy {
	return make(occupancy)
}

func (o occupancy) free(resourceID string, slots []int) bool {
	held, ok := o[resourceID]
	if !ok {
		return true
	}
	for _, s := range slots {
		if _, taken := held[s]; taken {
			return false
		}
	}
	return true
}

func (o occupancy) reserve(resourceID string, slots []int) {
	held, ok := o[resourceID]
	if !ok {
		held = make(map[int]struct{}, len(slots))
		o[resourceID] = held
	}
	for _, s := range slots {
		held[s] = struct{}{}
	}
}

func (o occupancy) release(resourceID string, slots []int) {
	held, ok := o[resourceID]
	if !ok {
		return
	}
	for _, s := range slots {
		delete(held, s)
	}
}

// subjectDaySet tracks, per (section, subject), the set of day indexes
// already used — the hard rule forbidding the same subject twice in one
// day for the same section.
type subjectDaySet map[string]map[int]struct{}

func subjectDayKey(sectionID, subjectID string) string {
	return sectionID + "\x00" + subjectID
}

func (s subjectDaySet) has(sectionID, subjectID string, day int) bool {
	days, ok := s[subjectDayKey(sectionID, subjectID)]
	if !ok {
		return false
	}
	_, used := days[day]
	return used
}

func (s subjectDaySet) add(sectionID, subjectID string, day int) {
	key := subjectDayKey(sectionID, subjectID)
	days, ok := s[key]
	if !ok {
		days = make(map[int]struct{})
		s[key] = days
	}
	days[day] = struct{}{}
}

func (s subjectDaySet) remove(sectionID, subjectID string, day int) {
	key := subjectDayKey(sectionID, subjectID)
	if days, ok := s[key]; ok {
		delete(days, day)
	}
}

func blockSlots(startSlot, blockSize int) []int {
	slots := make([]int, blockSize)
	for i := 0; i < blockSize; i++ {
		slots[i] = startSlot + i
	}
	return slots
}

// BuildChromosome constructs one candidate timetable by greedy,
// conflict-avoiding placement with fallback, per the Initializer design:
// for each demand entry, shuffle the candidate starts, try the first
// (start, room) combination that is clean across section/faculty/room
// occupancy and the subject-day rule; if nothing is clean, fall back to
// an arbitrary start and room and record the usage anyway, trusting
// evolution to repair it later.
func BuildChromosome(input *SchedulingInput, demand map[string][]DemandEntry, oracle *PlacementOracle, rng *rand.Rand) Chromosome {
	chromosome := Chromosome{Sections: make(map[string][]Gene, len(input.Sections))}

	sectionOcc := newOccupancy()
	facultyOcc := newOccupancy()
	roomOcc := newOccupancy()
	subjectDays := make(subjectDaySet)

	sectionIDs := make([]string, 0, len(input.Sections))
	for _, s := range input.Sections {
		sectionIDs = append(sectionIDs, s.SectionID)
	}

	for _, sectionID := range sectionIDs {
		section, ok := input.section(sectionID)
		if !ok {
			continue
		}

		for _, entry := range demand[sectionID] {
			subject, ok := input.subject(entry.SubjectID)
			if !ok {
				continue
			}
			kind := roomKindFor(subject.Kind)

			starts := append([]int(nil), oracle.ValidBlockStarts(entry.BlockSize)...)
			rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })

			roomOrder := oracle.PreferredRoomOrder(kind, section.StudentCount)

			placed := false
			for _, start := range starts {
				day, ok := input.Day(start)
				if !ok || subjectDays.has(sectionID, entry.SubjectID, day) {
					continue
				}
				slots := blockSlots(start, entry.BlockSize)

				for _, room := range roomOrder {
					if !sectionOcc.free(sectionID, slots) || !facultyOcc.free(entry.FacultyID, slots) || !roomOcc.free(room.RoomID, slots) {
						continue
					}

					gene := Gene{
						SectionID: sectionID,
						SubjectID: entry.SubjectID,
						FacultyID: entry.FacultyID,
						RoomID:    room.RoomID,
						StartSlot: start,
						BlockSize: entry.BlockSize,
					}
					chromosome.Sections[sectionID] = append(chromosome.Sections[sectionID], gene)
					sectionOcc.reserve(sectionID, slots)
					facultyOcc.reserve(entry.FacultyID, slots)
					roomOcc.reserve(room.RoomID, slots)
					subjectDays.add(sectionID, entry.SubjectID, day)
					placed = true
					break
				}
				if placed {
					break
				}
			}

			if !placed {
				fallbackStart := 0
				if len(starts) > 0 {
					fallbackStart = starts[rng.Intn(len(starts))]
				}
				room, _ := oracle.PickRoom(kind, section.StudentCount, rng)
				gene := Gene{
					SectionID: sectionID,
					SubjectID: entry.SubjectID,
					FacultyID: entry.FacultyID,
					RoomID:    room.RoomID,
					StartSlot: fallbackStart,
					BlockSize: entry.BlockSize,
				}
				chromosome.Sections[sectionID] = append(chromosome.Sections[sectionID], gene)
				slots := blockSlots(fallbackStart, entry.BlockSize)
				sectionOcc.reserve(sectionID, slots)
				facultyOcc.reserve(entry.FacultyID, slots)
				roomOcc.reserve(room.RoomID, slots)
				if day, ok := input.Day(fallbackStart); ok {
					subjectDays.add(sectionID, entry.SubjectID, day)
				}
			}
		}
	}

	return chromosome
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
