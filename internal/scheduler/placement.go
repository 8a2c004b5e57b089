package scheduler

import "math/rand"

// PlacementOracle caches the legal block-start slots per block size and
// the room pools the Initializer and mutation operator draw from, so both
// are computed once per run and shared read-only across fitness workers.
type PlacementOracle struct {
	input *SchedulingInput

	validStarts map[int][]int // blockSize -> legal start slots

	labRooms     []Room
	lectureRooms []Room
	allRooms     []Room
}

// NewPlacementOracle derives the caches from an already-Prepare()'d input.
func NewPlacementOracle(input *SchedulingInput) *PlacementOracle {
	o := &PlacementOracle{
		input:       input,
		validStarts: make(map[int][]int),
	}

	for _, r := range input.Rooms {
		o.allRooms = append(o.allRooms, r)
		if r.Type == RoomLab {
			o.labRooms = append(o.labRooms, r)
		} else {
			o.lectureRooms = append(o.lectureRooms, r)
		}
	}

	return o
}

// ValidBlockStarts returns every slot s such that {s, ..., s+blockSize-1}
// is a subset of usableSlots and all lie within the same day. Results are
// memoized per distinct blockSize.
func (o *PlacementOracle) ValidBlockStarts(blockSize int) []int {
	if cached, ok := o.validStarts[blockSize]; ok {
		return cached
	}

	var starts []int
	periodsPerDay := o.input.PeriodsPerDay
	for day := 0; day < o.input.DayCount; day++ {
		dayStart := day * periodsPerDay
		for offset := 0; offset+blockSize <= periodsPerDay; offset++ {
			ok := true
			for i := 0; i < blockSize; i++ {
				pos := dayStart + offset + i
				if pos >= len(o.input.SlotOrder) {
					ok = false
					break
				}
				slot := o.input.SlotOrder[pos]
				if _, usable := o.input.UsableSlots[slot]; !usable {
					ok = false
					break
				}
			}
			if ok {
				starts = append(starts, o.input.SlotOrder[dayStart+offset])
			}
		}
	}

	o.validStarts[blockSize] = starts
	return starts
}

// roomKindFor returns the room kind a subject's sessions must be held in.
func roomKindFor(kind SubjectKind) RoomKind {
	if kind == KindLab {
		return RoomLab
	}
	return RoomLecture
}

// PickRoom chooses a room uniformly from the first non-empty pool, in
// preference order: (1) matching type with enough capacity, (2) any type
// with enough capacity, (3) matching type regardless of capacity, (4) any
// room at all. The fallback chain guarantees a result even when the room
// inventory is under-provisioned; hard evaluation penalizes the misfit.
func (o *PlacementOracle) PickRoom(kind RoomKind, minCapacity int, rng *rand.Rand) (Room, bool) {
	pools := [][]Room{
		filterRooms(o.allRooms, func(r Room) bool { return r.Type == kind && r.Capacity >= minCapacity }),
		filterRooms(o.allRooms, func(r Room) bool { return r.Capacity >= minCapacity }),
		filterRooms(o.allRooms, func(r Room) bool { return r.Type == kind }),
		o.allRooms,
	}
	for _, pool := range pools {
		if len(pool) > 0 {
			return pool[rng.Intn(len(pool))], true
		}
	}
	return Room{}, false
}

// PreferredRoomOrder returns rooms ordered by the same preference used by
// PickRoom, for the Initializer's clean-placement search which needs to
// try each candidate room rather than pick just one.
func (o *PlacementOracle) PreferredRoomOrder(kind RoomKind, minCapacity int) []Room {
	seen := make(map[string]struct{}, len(o.allRooms))
	var ordered []Room
	add := func(rooms []Room) {
		for _, r := range rooms {
			if _, dup := seen[r.RoomID]; dup {
				continue
			}
			seen[r.RoomID] = struct{}{}
			ordered = append(ordered, r)
		}
	}
	add(filterRooms(o.allRooms, func(r Room) bool { return r.Type == kind && r.Capacity >= minCapacity }))
	add(filterRooms(o.allRooms, func(r Room) bool { return r.Capacity >= minCapacity }))
	add(filterRooms(o.allRooms, func(r Room) bool { return r.Type == kind }))
	add(o.allRooms)
	return ordered
}

func filterRooms(rooms []Room, keep func(Room) bool) []Room {
	var out []Room
	for _, r := range rooms {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
