package scheduler

// DemandEntry is one required session a section must receive: a subject
// taught by a specific faculty member, shaped into a session of blockSize
// consecutive periods (1 for theory, the subject's block size for labs).
type DemandEntry struct {
	SubjectID string
	FacultyID string
	BlockSize int
}

// ExpandDemand derives, from the curriculum edges and each subject's
// weekly period count, the multiset of sessions every section must
// receive. Curriculum edges are walked in input order so that demand
// entries — and therefore the deterministic part of initialization — do
// not depend on map iteration.
func ExpandDemand(input *SchedulingInput) (map[string][]DemandEntry, error) {
	demand := make(map[string][]DemandEntry, len(input.Sections))

	for _, edge := range input.Curriculum {
		subject, ok := input.subject(edge.SubjectID)
		if !ok {
			continue // missing_reference is a hard-evaluation concern, not a demand-expansion concern
		}

		switch subject.Kind {
		case KindTheory:
			if subject.BlockSize != 1 {
				return nil, ErrInvalidLabConfig
			}
			for i := 0; i < subject.RequiredPeriodsPerWeek; i++ {
				demand[edge.SectionID] = append(demand[edge.SectionID], DemandEntry{
					SubjectID: edge.SubjectID,
					FacultyID: edge.FacultyID,
					BlockSize: 1,
				})
			}
		case KindLab:
			if subject.BlockSize < 2 || subject.RequiredPeriodsPerWeek%subject.BlockSize != 0 {
				return nil, ErrInvalidLabConfig
			}
			sessions := subject.RequiredPeriodsPerWeek / subject.BlockSize
			for i := 0; i < sessions; i++ {
				demand[edge.SectionID] = append(demand[edge.SectionID], DemandEntry{
					SubjectID: edge.SubjectID,
					FacultyID: edge.FacultyID,
					BlockSize: subject.BlockSize,
				})
			}
		default:
			return nil, ErrInvalidLabConfig
		}
	}

	return demand, nil
}
